package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newConfigureCmd(g *globals) *cobra.Command {
	var (
		index string
		drop  bool
	)
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create indexes or update their mappings",
		Long: `Create every configured index, or put its mapping when it already exists.

With --clear the index is dropped first, which discards all indexed documents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd, func(ctx context.Context, a *app) error {
				indexes, err := a.indexes(index)
				if err != nil {
					return err
				}
				return a.mapping.Configure(ctx, indexes, drop)
			})
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "configure only this index")
	cmd.Flags().BoolVar(&drop, "clear", false, "drop existing indexes before configuring")
	return cmd
}
