package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the configuration",
	}

	cmd.AddCommand(c.newConfigGetCmd())
	cmd.AddCommand(c.newConfigSetCmd())
	cmd.AddCommand(c.newConfigPathCmd())
	cmd.AddCommand(c.newConfigKeysCmd())

	return cmd
}

func (c *CLI) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or every setting with tokens masked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := c.renderer(cmd)

			if len(args) == 1 {
				v, err := c.app.ConfigValue(args[0])
				if err != nil {
					return err
				}
				return r.Value(v)
			}

			keys := c.app.ConfigKeys()
			values := make(map[string]any, len(keys))
			for _, k := range keys {
				v, err := c.app.ConfigValue(k)
				if err != nil {
					return err
				}
				values[k] = mask(k, v)
			}
			return r.Settings(keys, values)
		},
	}
}

func (c *CLI) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save the configuration file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			c.renderer(cmd).Notice("%s updated in %s", args[0], c.app.ConfigPath())
			return nil
		},
	}
}

func (c *CLI) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the location of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.renderer(cmd).Value(c.app.ConfigPath())
		},
	}
}

func (c *CLI) newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the settings accepted by get and set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := c.renderer(cmd)
			for _, k := range c.app.ConfigKeys() {
				if err := r.Value(k); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func mask(key string, v any) any {
	if key != "integrationToken" && key != "accessToken" {
		return v
	}
	if s, ok := v.(string); ok && s != "" {
		return "********"
	}
	return v
}
