package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apnats "github.com/Strob0t/AgilePulse/internal/adapter/nats"
	"github.com/Strob0t/AgilePulse/internal/service"
)

func newInvalidateCmd(a *app) *cobra.Command {
	var scope, reason string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Publish a cache invalidation to all running servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, closer, err := a.load()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			queue, err := apnats.Connect(ctx, cfg.NATS.URL)
			if err != nil {
				return fmt.Errorf("nats: %w", err)
			}
			defer func() { _ = queue.Drain() }()

			res, err := service.NewInvalidationService(queue, nil, nil, nil).Publish(ctx, scope, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s invalidation %s\n", res.Scope, res.EventID)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "issues", "invalidation scope (org|issues)")
	cmd.Flags().StringVar(&reason, "reason", "cli", "reason recorded with the event")
	return cmd
}
