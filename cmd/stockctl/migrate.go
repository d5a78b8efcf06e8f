package main

import (
	"github.com/spf13/cobra"

	"stockcore/internal/infrastructure/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func migrateRun(fn func(m *postgres.Migrator, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !cfg.UsesPostgres() {
			return errNoDatabase
		}
		pool, err := postgres.NewPool(cmd.Context(), cfg.Pool())
		if err != nil {
			return err
		}
		defer pool.Close()

		m, err := postgres.NewMigrator(pool)
		if err != nil {
			return err
		}
		return fn(m, cmd)
	}
}

func init() {
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: migrateRun(func(m *postgres.Migrator, cmd *cobra.Command) error {
				if err := m.Up(cmd.Context()); err != nil {
					return err
				}
				log.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: migrateRun(func(m *postgres.Migrator, cmd *cobra.Command) error {
				return m.Down(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			RunE: migrateRun(func(m *postgres.Migrator, cmd *cobra.Command) error {
				return m.Status(cmd.Context())
			}),
		},
	)
	rootCmd.AddCommand(migrateCmd)
}
