package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/AgilePulse/internal/adapter/postgres"
	"github.com/Strob0t/AgilePulse/internal/service"
)

func newResolveCmd(a *app) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the teams a team or group filter resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, closer, err := a.load()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()

			orgs := service.NewOrgService(postgres.NewStore(pool, nil), nil)
			tf, err := orgs.ResolveFilter(ctx, args[0], group)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s): %d team(s)\n", strings.TrimSpace(args[0]), tf.Scope, len(tf.Teams))
			for _, name := range tf.Teams {
				fmt.Fprintln(out, "  "+name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&group, "group", "g", false, "treat the name as a group")
	return cmd
}
