package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/config"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/postgres"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Migration entry points, replaced in tests.
var (
	migrateUp     = postgres.RunMigrations
	migrateDown   = postgres.RollbackMigration
	migrateStatus = postgres.MigrationStatus
	migrateForce  = postgres.ForceMigrationVersion
	migrateReset  = postgres.ResetDatabase
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL telemetry schema",
	}
	cmd.AddCommand(
		newMigrateUpCmd(),
		newMigrateDownCmd(),
		newMigrateStatusCmd(),
		newMigrateForceCmd(),
		newMigrateResetCmd(),
	)
	return cmd
}

// databaseURL returns the configured PostgreSQL URL.
func databaseURL(cmd *cobra.Command) (string, error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return "", err
	}
	db := cc.Config.Database
	if db.DSN == "" && db.Host == "" {
		return "", errors.New(errors.ErrCodeValidation, "database.dsn or database.host is required")
	}
	if cc.Config.Telemetry.Backend != config.BackendPostgres {
		cc.Logger.Warn("telemetry.backend is not postgres; the schema is not used by this configuration")
	}
	return db.URL(), nil
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := migrateUp(url); err != nil {
				return err
			}
			PrintSuccess(cmd, "schema is up to date")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := migrateDown(url, steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

// MigrationState is printed by `migrate status`.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s MigrationState) String() string {
	if s.Version == 0 {
		return "no migrations applied"
	}
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty: fix the schema, then run `migrate force %d`)", s.Version, s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := migrateStatus(url)
			if err != nil {
				return err
			}
			return PrintResult(cmd, MigrationState{Version: version, Dirty: dirty})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Record a schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < -1 {
				return errors.Newf(errors.ErrCodeValidation, "invalid version %q", args[0])
			}
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := migrateForce(url, version); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", version))
			return nil
		},
	}
}

func newMigrateResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Roll back every migration and re-apply them, dropping stored telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, "This drops all telemetry stored in the database. Continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			if err := migrateReset(url); err != nil {
				return err
			}
			PrintSuccess(cmd, "schema reset")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

//Personal.AI order the ending
