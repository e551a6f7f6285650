// Package commands implements the CLI commands for notionstatus.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/detector" //nolint:depguard // Output selection belongs to the CLI
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/linear"   //nolint:depguard // Output selection belongs to the CLI
	"github.com/TechupBusiness/browser-extension-notion-status/internal/app"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/build"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/spf13/cobra"
)

// CLI represents the command line interface for notionstatus.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	output  string
}

// Application represents the application logic interface.
type Application interface {
	CacheOnly(ctx context.Context, url string) (domain.Status, error)
	Reconcile(ctx context.Context, url string) (domain.Status, error)
	Rules(ctx context.Context, url string) (domain.RulesReport, error)
	ClearCache(ctx context.Context, url string) (bool, error)
	ClearAll(ctx context.Context) (int, error)
	CacheEntry(ctx context.Context, url string) (*domain.CacheEntry, error)
	CacheEntries(ctx context.Context) ([]domain.CacheEntry, error)
	CacheTTL() time.Duration
	Now() time.Time
	FullSync(ctx context.Context) domain.SyncResult
	DeltaSync(ctx context.Context) domain.SyncResult
	Status(ctx context.Context) domain.Status
	ConfigKeys() []string
	ConfigValue(key string) (any, error)
	SetConfigValue(key, value string) error
	ConfigPath() string
	Serve(ctx context.Context, opts app.ServeOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "notionstatus",
		Short:         "Check whether web pages are already saved in a Notion database",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", "auto", "Output mode: auto, pretty, plain, or json")
	// Read before the application is built; declared here so cobra accepts it.
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newRulesCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) renderer(cmd *cobra.Command) *linear.Renderer {
	mode := detector.ResolveMode(detector.DetectEnvironment(), c.output)
	return linear.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}
