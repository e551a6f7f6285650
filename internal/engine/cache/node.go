package cache

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"        //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the classification cache Graft node.
const NodeID graft.ID = "engine.cache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			kv.NodeID,
			config.NodeID,
			telemetry.MetricsNodeID,
		},
		Run: func(ctx context.Context) (*Cache, error) {
			store, err := graft.Dep[ports.KVStore](ctx)
			if err != nil {
				return nil, err
			}

			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}

			metrics, err := graft.Dep[*telemetry.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, configStore, WithMetrics(metrics)), nil
		},
	})
}
