// Package cli implements ledgerctl, the operator command line for the
// daily ledger service.
package cli

import (
	"fmt"

	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/database"
	"github.com/daily-ledger/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for ledgerctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tooling for the daily ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yaml", "path to the YAML config file")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewGenSecretCommand())

	return cmd
}

// openDatabase loads the configuration and connects to its database
func openDatabase(opts *RootOptions) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level}); err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
