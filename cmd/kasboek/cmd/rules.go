package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/category"
)

func newRulesCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "rules",
		Short: "Validate and print the category table",
		Long: `Load the category table (--file, CATEGORY_RULES_PATH or the built-in
default), validate it and print it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("CATEGORY_RULES_PATH")
			}

			rules, err := category.Load(file)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tACCOUNT\tLABEL\tVAT")
			for _, r := range rules.All() {
				account := "-"
				if r.LedgerAccount != nil {
					account = *r.LedgerAccount
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, account, r.Label, r.VAT)
			}
			return tw.Flush()
		},
	}

	c.Flags().StringVar(&file, "file", "", "category rules YAML file")
	return c
}
