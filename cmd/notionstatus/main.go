// Package main is the entry point for the notionstatus CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TechupBusiness/browser-extension-notion-status/cmd/notionstatus/commands"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/app"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/wiring"
	"github.com/grindlemire/graft"
	"github.com/joho/godotenv"
)

// ComponentProvider builds the application components and a cleanup func.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	provider ComponentProvider,
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// .env and --config must be visible before the config node loads.
	if err := loadEnv(args); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}

	components, cleanup, err := provider(ctx)
	if err != nil {
		// No logger without components.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()
	defer func() {
		if err := components.App.Close(context.WithoutCancel(ctx)); err != nil {
			components.Logger.Error(err)
		}
	}()

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	err = cli.Execute(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrSyncFailed):
		// The sync command already rendered the failure.
		return 1
	default:
		components.Logger.Error(err)
		return 1
	}
}

// loadEnv reads a .env file from the working directory and exports --config as the config location.
func loadEnv(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if path := configFlag(args); path != "" {
		return os.Setenv(domain.ConfigEnvVar, path)
	}
	return nil
}

// configFlag returns the value of --config in args without parsing the other flags.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			return ""
		}
		if value, ok := strings.CutPrefix(arg, "--config="); ok {
			return value
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
