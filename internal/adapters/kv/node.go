package kv

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the key/value store Graft node.
const NodeID graft.ID = "adapter.kv_store"

func init() {
	graft.Register(graft.Node[ports.KVStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.KVStore, error) {
			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := configStore.Load()
			if err != nil {
				return nil, err
			}
			return Open(ctx, cfg.Store)
		},
	})
}
