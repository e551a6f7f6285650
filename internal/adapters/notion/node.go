package notion

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the Notion lookup service Graft node.
const NodeID graft.ID = "adapter.notion"

func init() {
	graft.Register(graft.Node[ports.LookupService]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.LookupService, error) {
			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := configStore.Load()
			if err != nil {
				return nil, err
			}
			return NewClient(cfg.Notion, log), nil
		},
	})
}
