package app

import "github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"

// Components bundles the dependencies the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}
