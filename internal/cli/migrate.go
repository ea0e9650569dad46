package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)
		cfg := GetConfig()

		database, err := db.Open(db.Config{
			Path:        cfg.Database.Path,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return err
		}
		defer database.Close()

		step := startProgress(cmd, "Migrating "+cfg.Database.Path)
		applied, err := database.MigrateUp(ctx)
		if err != nil {
			step.Fail(err)
			return err
		}
		step.Done()

		version, err := database.SchemaVersion(ctx)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), map[string]any{
				"path":    database.Path(),
				"applied": applied,
				"version": version,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s); schema version %d\n", applied, version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		database, err := db.Open(db.Config{
			Path:        cfg.Database.Path,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return err
		}
		defer database.Close()

		version, err := database.SchemaVersion(contextOf(cmd))
		if err != nil {
			return err
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), map[string]any{"path": database.Path(), "version": version})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", version, database.Path())
		return nil
	},
}

func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(contextOf(cmd))
	}
	return context.WithTimeout(contextOf(cmd), timeout)
}
