package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// summaryView renders a telemetry summary.
type summaryView struct {
	telemetry.Summary
}

func (v summaryView) TableHeaders() []string {
	return []string{"REACTION", "RUNS", "PRODUCTS", "VALID", "FAILED", "SUCCESS"}
}

func (v summaryView) TableRows() [][]string {
	names := make([]string, 0, len(v.ReactionStats))
	for name := range v.ReactionStats {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		st := v.ReactionStats[name]
		rows = append(rows, []string{
			name,
			strconv.FormatInt(st.TotalRuns, 10),
			strconv.FormatInt(st.TotalProducts, 10),
			strconv.FormatInt(st.ValidProducts, 10),
			strconv.FormatInt(st.FailedProducts, 10),
			fmt.Sprintf("%.1f%%", st.SuccessRate*100),
		})
	}
	return rows
}

func (v summaryView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Backend:        %s\n", v.Backend)
	fmt.Fprintf(&sb, "Failures logged: %d\n", v.TotalFailedLogged)
	if len(v.FailureReasons) > 0 {
		sb.WriteString("Failure reasons:\n")
		reasons := make([]string, 0, len(v.FailureReasons))
		for r := range v.FailureReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(&sb, "  %-40s %d\n", r, v.FailureReasons[r])
		}
	}
	if len(v.ReactionStats) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// failureList renders failure entries oldest first.
type failureList []telemetry.FailureEntry

func (l failureList) TableHeaders() []string {
	return []string{"TIME", "REACTION", "PRODUCT", "SIMILARITY", "REASON"}
}

func (l failureList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, failureRow(e))
	}
	return rows
}

func failureRow(e telemetry.FailureEntry) []string {
	name := telemetry.UnknownReaction
	if e.ReactionName != nil {
		name = *e.ReactionName
	}
	sim := "n/a"
	if e.Similarity != nil {
		sim = strconv.FormatFloat(*e.Similarity, 'f', 3, 64)
	}
	return []string{e.Timestamp.Format(time.RFC3339), name, e.Product, sim, e.Reason}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show failure counts and per-reaction statistics",
		Args:  cobra.NoArgs,
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

			sum, err := app.Sink.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, summaryView{sum})
		},
	}
}

type failuresOptions struct {
	limit  int
	follow bool
	from   string
}

func newFailuresCmd() *cobra.Command {
	opts := &failuresOptions{}
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List rejected candidates",
		Long: "List the newest rejected candidates from the failure log.  With --follow,\n" +
			"tail the rejection topic instead (requires kafka.enabled).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if opts.limit <= 0 {
				return errors.New(errors.ErrCodeValidation, "--limit must be a positive integer")
			}
			if opts.follow {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return followRejections(ctx, cmd, cc, opts.from)
			}

			app, err := buildApp(cmd.Context(), cc, appNeeds{})
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Sink.FailedReactions(cmd.Context(), opts.limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 && cc.OutputFormat != OutputJSON {
				fmt.Fprintln(cmd.OutOrStdout(), "No failed reactions logged")
				return nil
			}
			return PrintResult(cmd, failureList(entries))
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.limit, "limit", "n", telemetry.DefaultFailureQueryLimit, "number of entries to show")
	f.BoolVarP(&opts.follow, "follow", "f", false, "stream new rejections from Kafka")
	f.StringVar(&opts.from, "from", "latest", "where a new consumer group starts (earliest, latest)")
	return cmd
}

// followRejections prints every rejection event until ctx is cancelled.
func followRejections(ctx context.Context, cmd *cobra.Command, cc *CLIContext, from string) error {
	cfg := cc.Config
	if !cfg.Kafka.Enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "--follow requires kafka.enabled")
	}
	topic := cfg.Kafka.Topic
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{topic},
		AutoOffsetReset: from,
		Security:        cfg.Kafka.Security,
	}, cc.Logger.Named("kafka"))
	if err != nil {
		return err
	}
	defer consumer.Close()

	consumer.Subscribe(topic, rejectionPrinter(cmd, cc))
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	cc.Logger.Info("Following rejections", logging.String("topic", topic))
	<-ctx.Done()
	return nil
}

// rejectionPrinter writes one line per decoded event.  Undecodable messages
// are logged and skipped so they are not redelivered.
func rejectionPrinter(cmd *cobra.Command, cc *CLIContext) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		entry, err := telemetry.DecodeRejection(msg)
		if err != nil {
			cc.Logger.Warn("Skipping undecodable rejection event",
				logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		out := cmd.OutOrStdout()
		if cc.OutputFormat == OutputJSON {
			line, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(line))
			return nil
		}
		fmt.Fprintln(out, strings.Join(failureRow(entry), "  "))
		return nil
	}
}

//Personal.AI order the ending
