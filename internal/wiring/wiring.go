// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/notion"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/statusboard"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/app"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/engine/autocheck"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/engine/classifier"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/engine/scheduler"
	_ "github.com/TechupBusiness/browser-extension-notion-status/internal/engine/syncer"
)
