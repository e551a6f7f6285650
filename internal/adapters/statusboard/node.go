package statusboard

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the status board Graft node.
const NodeID graft.ID = "adapter.status_board"

func init() {
	graft.Register(graft.Node[*Board]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{kv.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Board, error) {
			store, err := graft.Dep[ports.KVStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, log), nil
		},
	})
}
