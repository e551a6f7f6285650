package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the classification cache",
	}

	cmd.AddCommand(c.newCacheGetCmd())
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCacheClearCmd())

	return cmd
}

func (c *CLI) newCacheGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Show the live cache entry of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.app.CacheEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.renderer(cmd).Entry(args[0], entry, c.app.Now(), c.app.CacheTTL())
		},
	}
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every cache entry, expired ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.CacheEntries(cmd.Context())
			if err != nil {
				return err
			}
			return c.renderer(cmd).Entries(entries, c.app.Now(), c.app.CacheTTL())
		},
	}
}

func (c *CLI) newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [url]",
		Short: "Remove the cache entry of a URL, or every entry with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			r := c.renderer(cmd)

			if all {
				n, err := c.app.ClearAll(cmd.Context())
				if err != nil {
					return err
				}
				r.Notice("removed %d cache entries", n)
				return nil
			}

			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}

			removed, err := c.app.ClearCache(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				r.Notice("cache cleared for %s", args[0])
			} else {
				r.Notice("no cache entry for %s", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Remove every cache entry")
	return cmd
}
