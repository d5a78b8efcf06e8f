package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stockcore/internal/app"
	"stockcore/internal/config"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/pkg/logger"
)

var version = "dev"

var (
	cfg config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Operator tool for the stockcore inventory engine",
	Long: `stockctl runs schema migrations, issues API tokens and performs
stock operations (low-stock report, opname sheets) directly against the
configured database.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if log, err = logger.New(cfg.Logger()); err != nil {
			return err
		}
		logger.SetDefault(log)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to a YAML config file")
}

var errNoDatabase = errors.New("postgres.dsn is not configured")

// buildApp wires the engine. Data commands refuse to run on the in-memory
// store since nothing they do would outlive the process.
func buildApp(ctx context.Context) (*app.App, error) {
	if !cfg.UsesPostgres() {
		return nil, errNoDatabase
	}
	return app.Build(ctx, cfg, log)
}

// operatorContext scopes ctx to org and acts as a privileged operator.
func operatorContext(cmd *cobra.Command) (context.Context, error) {
	raw, _ := cmd.Flags().GetString("org")
	orgID, err := id.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("--org: %w", err)
	}
	as, _ := cmd.Flags().GetString("as")

	ctx := tenant.WithOrg(cmd.Context(), orgID)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:     as,
		Roles:      []string{"admin"},
		Privileged: true,
	})
	return logger.WithLogger(ctx, log), nil
}

func addOrgFlags(cmd *cobra.Command) {
	cmd.Flags().String("org", "", "organization id")
	cmd.Flags().String("as", "stockctl", "user id recorded on audit entries")
	_ = cmd.MarkFlagRequired("org")
}
