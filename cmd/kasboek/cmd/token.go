package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/kasboek/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(subject, email, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&subject, "subject", "", "token subject")
	c.Flags().StringVar(&email, "email", "", "optional email claim")
	c.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("subject")
	return c
}
