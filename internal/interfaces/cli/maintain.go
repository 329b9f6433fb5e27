package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/application/maintenance"
)

func newMaintainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Check, back up, restore and clean the telemetry data",
	}
	cmd.AddCommand(
		newMaintainCheckCmd(),
		newMaintainBackupCmd(),
		newMaintainListCmd(),
		newMaintainRestoreCmd(),
		newMaintainStatsCmd(),
		newMaintainCleanCmd(),
	)
	return cmd
}

// withMaintenance builds the app and its maintenance service for fn.
func withMaintenance(cmd *cobra.Command, fn func(*maintenance.Service) error) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	app, err := buildApp(cmd.Context(), cc, appNeeds{Archive: true})
	if err != nil {
		return err
	}
	defer app.Close()

	svc, err := app.Maintenance()
	if err != nil {
		return err
	}
	return fn(svc)
}

type healthView struct {
	*maintenance.HealthReport
}

func (v healthView) String() string {
	var sb strings.Builder
	status := "healthy"
	if !v.Healthy {
		status = "UNHEALTHY"
	}
	fmt.Fprintf(&sb, "Status:            %s\n", status)
	fmt.Fprintf(&sb, "Backend:           %s\n", v.Backend)
	if v.StoreError != "" {
		fmt.Fprintf(&sb, "Store error:       %s\n", v.StoreError)
	}
	fmt.Fprintf(&sb, "Failures logged:   %d / %d\n", v.FailuresLogged, v.MaxFailures)
	fmt.Fprintf(&sb, "Reactions tracked: %d\n", v.ReactionsTracked)
	fmt.Fprintf(&sb, "Catalog:           %s (%d entries, %d issues)\n", v.CatalogSource, v.CatalogSize, len(v.CatalogIssues))
	fmt.Fprintf(&sb, "Training examples: %d\n", v.TrainingExamples)
	fmt.Fprintf(&sb, "Backups:           %d\n", len(v.Backups))

	files := make([]string, 0, len(v.Files))
	for f := range v.Files {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(&sb, "  %-32s %s\n", f, v.Files[f])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func newMaintainCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report the state of the telemetry store, catalog and backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				report, err := svc.Check(cmd.Context())
				if err != nil {
					return err
				}
				return PrintResult(cmd, healthView{report})
			})
		},
	}
}

type backupView struct {
	*maintenance.BackupResult
}

func (v backupView) String() string {
	msg := fmt.Sprintf("Backup %s written to %s (%d files)", v.Name, v.Dir, len(v.Files))
	if len(v.Uploaded) > 0 {
		msg += fmt.Sprintf(", %d objects uploaded", len(v.Uploaded))
	}
	return msg
}

func newMaintainBackupCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the telemetry documents, training data and catalog into a backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				res, err := svc.Backup(cmd.Context(), remote)
				if err != nil {
					return err
				}
				return PrintResult(cmd, backupView{res})
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also upload the backup to object storage")
	return cmd
}

type backupList []string

func (l backupList) TableHeaders() []string { return []string{"BACKUP"} }

func (l backupList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, name := range l {
		rows = append(rows, []string{name})
	}
	return rows
}

func newMaintainListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				names, err := svc.LocalBackups()
				if err != nil {
					return err
				}
				return PrintResult(cmd, backupList(names))
			})
		},
	}
}

func newMaintainRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the telemetry documents with a local backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				if err := svc.Restore(cmd.Context(), args[0]); err != nil {
					return err
				}
				PrintSuccess(cmd, "restored "+args[0])
				return nil
			})
		},
	}
}

type reportView struct {
	*maintenance.Report
}

func (v reportView) TableHeaders() []string {
	return []string{"REACTION", "RUNS", "PRODUCTS", "VALID", "FAILED", "SUCCESS"}
}

func (v reportView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Top))
	for _, r := range v.Top {
		rows = append(rows, []string{
			r.Name,
			strconv.FormatInt(r.TotalRuns, 10),
			strconv.FormatInt(r.TotalProducts, 10),
			strconv.FormatInt(r.ValidProducts, 10),
			strconv.FormatInt(r.FailedProducts, 10),
			fmt.Sprintf("%.1f%%", r.SuccessRate*100),
		})
	}
	return rows
}

func (v reportView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Failures logged: %d\n\n", v.Summary.TotalFailedLogged)
	if len(v.Top) > 0 {
		sb.WriteString("Top reactions by products:\n")
		sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))
	}
	if len(v.Recent) > 0 {
		sb.WriteString("\nRecent failures:\n")
		for _, e := range v.Recent {
			row := failureRow(e)
			fmt.Fprintf(&sb, "  %s  %s  %s  (%s)\n", row[0], row[1], row[2], e.Reason)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func newMaintainStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Rank reactions by product count and show the newest failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				report, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return PrintResult(cmd, reportView{report})
			})
		},
	}
}

func newMaintainCleanCmd() *cobra.Command {
	var (
		remote bool
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Back up, then empty the failure log and reaction statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd, "This clears all telemetry after a backup. Continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			return withMaintenance(cmd, func(svc *maintenance.Service) error {
				res, err := svc.Clean(cmd.Context(), remote)
				if err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("telemetry cleared at %s, backup %s", time.Now().Format(time.RFC3339), res.Name))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also upload the backup to object storage")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

//Personal.AI order the ending
