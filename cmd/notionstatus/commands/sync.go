package commands

import (
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the Notion database into the cache",
		Long: "Runs a delta sync of the records edited since the last sync. " +
			"A full sync runs instead when none happened yet or --full is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			full, _ := cmd.Flags().GetBool("full")

			sync := c.app.DeltaSync
			if full {
				sync = c.app.FullSync
			}
			result := sync(cmd.Context())
			if err := c.renderer(cmd).Sync(result); err != nil {
				return err
			}
			if !result.Success {
				return zerr.With(zerr.Wrap(domain.ErrSyncFailed, "sync"), "error", result.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("full", "f", false, "Run a full sync")
	return cmd
}
