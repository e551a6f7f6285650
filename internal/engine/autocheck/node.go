package autocheck

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/classifier"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the auto-check manager Graft node.
const NodeID graft.ID = "engine.autocheck"

func init() {
	graft.Register(graft.Node[*Manager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			classifier.NodeID,
			config.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Manager, error) {
			engine, err := graft.Dep[*classifier.Engine](ctx)
			if err != nil {
				return nil, err
			}

			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(engine, configStore, log), nil
		},
	})
}
