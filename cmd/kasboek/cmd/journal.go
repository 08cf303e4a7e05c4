package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/export"
	"github.com/josh-kwaku/kasboek/internal/repository"
	"github.com/josh-kwaku/kasboek/internal/service"
)

func newJournalCmd(opts *rootOptions) *cobra.Command {
	journal := &cobra.Command{
		Use:   "journal",
		Short: "Monthly accounting journal",
	}
	journal.AddCommand(newJournalExportCmd(opts))
	return journal
}

func newJournalExportCmd(opts *rootOptions) *cobra.Command {
	var month, out string

	c := &cobra.Command{
		Use:   "export",
		Short: "Write a month's journal as CSV",
		Long: `Write the journal lines of a month as CSV (ledger_account,label,amount).

Example:
  kasboek journal export --month 2025-03
  kasboek journal export --month 2025-03 --out journal-2025-03.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMonth(month)
			if err != nil {
				return err
			}

			cfg, db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rules, err := category.Load(cfg.CategoryRulesPath)
			if err != nil {
				return err
			}

			svc := service.NewJournalService(repository.NewReportRepository(db), repository.NewDayRepository(db), rules)
			lines, err := svc.BuildJournal(cmd.Context(), m)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := export.WriteJournalCSV(w, lines); err != nil {
				return err
			}
			slog.Info("journal exported", "month", m.String(), "lines", len(lines), "out", out)
			return nil
		},
	}

	c.Flags().StringVar(&month, "month", "", "month to export, YYYY-MM")
	c.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	_ = c.MarkFlagRequired("month")
	return c
}
