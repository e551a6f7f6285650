package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Classify a URL against the cache and Notion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheOnly, _ := cmd.Flags().GetBool("cache-only")

			check := c.app.Reconcile
			if cacheOnly {
				check = c.app.CacheOnly
			}
			status, err := check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.renderer(cmd).Status(status)
		},
	}
	cmd.Flags().BoolP("cache-only", "c", false, "Answer from the cache without querying Notion")
	return cmd
}

func (c *CLI) newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <url>",
		Short: "Show how the domain rules apply to a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Rules(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.renderer(cmd).Rules(report)
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last published status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.renderer(cmd).Status(c.app.Status(cmd.Context()))
		},
	}
}
