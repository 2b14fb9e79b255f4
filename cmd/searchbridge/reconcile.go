package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	reconcileuc "github.com/kailas-cloud/searchbridge/internal/usecase/reconcile"
)

func newReconcileCmd(g *globals) *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Retry index writes recorded in the dirty ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !g.cfg.Ledger.Enabled {
				return errors.New("ledger is disabled in the configuration")
			}
			return g.run(cmd, func(ctx context.Context, a *app) error {
				var (
					reports []reconcileuc.Report
					err     error
				)
				if index == "" {
					reports, err = a.reconcile.RetryAll(ctx)
				} else {
					var rep reconcileuc.Report
					rep, err = a.reconcile.Retry(ctx, index)
					reports = append(reports, rep)
				}
				for _, rep := range reports {
					cmd.Printf("%s: %d retried, %d cleared, %d still failing\n",
						rep.Index, rep.Retried, rep.Cleared, rep.Failed)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "reconcile only this index")
	return cmd
}
