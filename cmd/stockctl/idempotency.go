package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockcore/internal/infrastructure/storage/postgres"
)

var idempotencyCmd = &cobra.Command{
	Use:   "idempotency",
	Short: "Idempotency key maintenance",
}

var idempotencyCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired idempotency keys once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.UsesPostgres() {
			return errNoDatabase
		}
		pool, err := postgres.NewPool(cmd.Context(), cfg.Pool())
		if err != nil {
			return err
		}
		defer pool.Close()

		store := postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.Idempotency.TTL)
		n, err := store.CleanupExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired keys\n", n)
		return nil
	},
}

func init() {
	idempotencyCmd.AddCommand(idempotencyCleanupCmd)
	rootCmd.AddCommand(idempotencyCmd)
}
