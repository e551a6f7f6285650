package app

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

// ConfigChanged exposes configChanged for tests.
func (a *App) ConfigChanged(ctx context.Context, prev, next *domain.Config) {
	a.configChanged(ctx, prev, next)
}
