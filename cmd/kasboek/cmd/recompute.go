package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/repository"
	"github.com/josh-kwaku/kasboek/internal/service"
)

func newRecomputeCmd(opts *rootOptions) *cobra.Command {
	var from string

	c := &cobra.Command{
		Use:   "recompute",
		Short: "Carry opening balances forward through the rest of a year",
		Long: `Recompute the opening balance of every day after --from in the same year,
as the recomputer service does when it receives a change signal.

Example:
  kasboek recompute --from 2025-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseDate(from)
			if err != nil {
				return err
			}

			_, db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewRecomputeService(
				repository.NewDayRepository(db),
				repository.NewReportRepository(db),
				db,
				slog.Default(),
			)
			changed, err := svc.RecomputeFrom(cmd.Context(), date)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d opening balances updated\n", changed)
			return nil
		},
	}

	c.Flags().StringVar(&from, "from", "", "anchor date, YYYY-MM-DD")
	_ = c.MarkFlagRequired("from")
	return c
}
