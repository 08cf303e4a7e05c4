package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/repository"
	"github.com/josh-kwaku/kasboek/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := repository.Migrate(cmd.Context(), db, migrations.FS)
			if err != nil {
				return err
			}

			if !res.Changed() {
				fmt.Fprintf(cmd.OutOrStdout(), "schema up to date at version %d\n", res.To)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated schema from version %d to %d\n", res.From, res.To)
			return nil
		},
	}
}
