// Package cmd provides the kasboek maintenance commands.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/config"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/repository"
)

type rootOptions struct {
	envFile string
	debug   bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "kasboek",
		Short: "Maintain the cash ledger and export monthly journals",
		Long: `kasboek runs maintenance tasks against the cash ledger database.

Example:
  kasboek migrate
  kasboek journal export --month 2025-03 --out journal-2025-03.csv
  kasboek recompute --from 2025-01-01`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if opts.debug {
				level = "debug"
			}
			slog.SetDefault(logging.New(os.Stderr, "kasboek", level, "development"))
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load (default is .env)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(opts),
		newJournalCmd(opts),
		newRecomputeCmd(opts),
		newRulesCmd(),
		newTokenCmd(opts),
	)
	return root
}

// Execute runs the CLI; SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		return config.Load(o.envFile)
	}
	return config.Load()
}

func (o *rootOptions) openDB(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return cfg, db, nil
}
