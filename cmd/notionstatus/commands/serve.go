package commands

import (
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API with periodic sync and auto-checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			idle, _ := cmd.Flags().GetDuration("idle-timeout")

			r := c.renderer(cmd)
			return c.app.Serve(cmd.Context(), app.ServeOptions{
				Listen:      listen,
				IdleTimeout: idle,
				Ready: func(addr string) {
					r.Notice("listening on http://%s", addr)
				},
			})
		},
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address, overriding server.listen")
	cmd.Flags().Duration("idle-timeout", time.Duration(0), "Stop after this long without requests (0 disables)")
	return cmd
}
