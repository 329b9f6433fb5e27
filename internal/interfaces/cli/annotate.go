package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/application/annotation"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/interfaces/tui"
)

// runAnnotate is replaced in tests to script the session.
var runAnnotate = tui.RunAnnotate

func newAnnotateCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Label rejected candidates as training data",
		Long: "Step through the failure log and label each rejected candidate.  Labelled\n" +
			"entries are appended to the training data file and removed from the log.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cc, appNeeds{})
			if err != nil {
				return err
			}
			defer app.Close()

			if limit <= 0 {
				limit = app.Sink.MaxFailures()
			}
			entries, err := app.Sink.FailedReactions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No failed reactions to annotate")
				return nil
			}

			writer, err := annotation.NewJSONLWriter(cc.Config.Telemetry.TrainingDataPath)
			if err != nil {
				return err
			}
			session := annotation.NewSession(entries, writer, cc.Logger.Named("annotate"))
			if err := runAnnotate(session, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			res, err := session.Commit(cmd.Context(), app.Sink)
			if err != nil {
				return err
			}
			cc.Logger.Info("Annotation session finished",
				logging.Int("labelled", res.Labelled),
				logging.Int("removed", res.Removed),
			)
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Labelled %d (%d plausible), skipped %d, %d left in the log. Training data: %s\n",
				res.Labelled, res.Plausible, res.Skipped, res.Remaining, writer.Path())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "annotate at most this many of the newest entries (default: all)")
	return cmd
}

//Personal.AI order the ending
