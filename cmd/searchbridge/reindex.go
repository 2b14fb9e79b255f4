package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	reindexuc "github.com/kailas-cloud/searchbridge/internal/usecase/reindex"
)

func newReindexCmd(g *globals) *cobra.Command {
	var (
		index   string
		class   string
		group   int
		batch   int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild indexes from the record source",
		Long: `Rebuild indexes from the record source in id-range groups.

Groups run concurrently. A failing group does not stop the others; its records
are kept in the dirty ledger (when enabled) for "searchbridge reconcile".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if class != "" && index == "" {
				return errors.New("--class requires --index")
			}
			opts := reindexuc.Options{
				Class:       class,
				BatchLength: orConfig(batch, g.cfg.Reindex.BatchLength),
				Workers:     orConfig(workers, g.cfg.Reindex.Workers),
			}
			if cmd.Flags().Changed("group") {
				if group < 0 {
					return errors.New("--group must be >= 0")
				}
				opts.Group = &group
			}
			return g.run(cmd, func(ctx context.Context, a *app) error {
				return reindex(ctx, cmd, a, index, opts)
			})
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "reindex only this index")
	cmd.Flags().StringVar(&class, "class", "", "reindex only this class and its descendants")
	cmd.Flags().IntVar(&group, "group", 0, "reindex only this zero-based id-range group")
	cmd.Flags().IntVar(&batch, "batch-length", 0, "records per group (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "groups processed concurrently (default from config)")
	return cmd
}

func reindex(ctx context.Context, cmd *cobra.Command, a *app, index string, opts reindexuc.Options) error {
	indexes, err := a.indexes(index)
	if err != nil {
		return err
	}
	var errs []error
	for _, idx := range indexes {
		rep, err := a.reindex.Run(ctx, idx, opts)
		cmd.Printf("%s: %d groups, %d records, %d failed groups\n", rep.Index, rep.Groups, rep.Records, len(rep.Failed))
		for _, grp := range rep.Failed {
			cmd.Printf("  failed %s group %d (ids %d-%d)\n", grp.Class, grp.Number, grp.From, grp.To)
		}
		if err != nil {
			a.log.Error("Reindex failed", zap.String("index", idx.Name()), zap.Error(err))
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	return nil
}

func orConfig(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}
