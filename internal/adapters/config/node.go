package config

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the configuration store Graft node.
const NodeID graft.ID = "adapter.config_store"

func init() {
	graft.Register(graft.Node[ports.ConfigStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ConfigStore, error) {
			return NewFileStore(domain.ResolveConfigPath()), nil
		},
	})
}
