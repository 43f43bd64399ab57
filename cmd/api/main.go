package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/config"
	"github.com/vbruno96/tabnews-clone/pkg/database"
	"github.com/vbruno96/tabnews-clone/pkg/utilities"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

func (a *app) dbConfig() database.Config {
	return database.Config{DSN: a.cfg.DatabaseURL, MaxConns: a.cfg.DBMaxConns}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "api",
		Short:         "TabNews-style user, session and activation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// best-effort: real environment wins when no .env exists
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg, err := utilities.InitLogger(utilities.LogConfig{
				Level: cfg.LogLevel,
				Dev:   cfg.LogDev,
				File:  cfg.LogFile,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg, a.logger, a.sugar = cfg, lg, lg.Sugar()
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	serve := newServeCommand(a)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCommand(a))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}
