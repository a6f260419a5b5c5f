package main

import (
	"fmt"

	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/spf13/cobra"
)

func (c *cli) newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the query cache",
	}
	cmd.AddCommand(c.newCacheInvalidateCommand())
	return cmd
}

func (c *cli) newCacheInvalidateCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Invalidate cached content",
		Long:  "Drop cached CMS responses for the configured tenant, optionally one family only (list, detail, all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := cache.Kind(kind)
			switch k {
			case "", cache.KindList, cache.KindDetail, cache.KindAll:
			default:
				return fmt.Errorf("invalid kind %q: want list, detail or all", kind)
			}

			cms, done, err := c.newClient()
			if err != nil {
				return err
			}
			defer done()

			if cms.GetCache() == nil {
				return fmt.Errorf("no query cache configured: set --redis-url or CMS_REDIS_URL")
			}

			deleted, err := cms.InvalidateCache(cmd.Context(), k)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d cache keys\n", deleted)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "key family to drop (list, detail, all); empty drops everything")

	return cmd
}
