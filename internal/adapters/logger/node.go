package logger

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}
			l := New()
			// An unreadable config is reported by the first command that needs it.
			if cfg, err := configStore.Load(); err == nil {
				l.SetLevel(cfg.LogLevel)
			}
			return l, nil
		},
	})
}
