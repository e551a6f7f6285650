package syncer

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"      //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"      //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/notion"      //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/statusboard" //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry"   //nolint:depguard // Wired in engine wiring
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/scheduler"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the sync reconciler Graft node.
const NodeID graft.ID = "engine.syncer"

func init() {
	graft.Register(graft.Node[*Reconciler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cache.NodeID,
			notion.NodeID,
			config.NodeID,
			statusboard.NodeID,
			scheduler.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			telemetry.MetricsNodeID,
		},
		Run: func(ctx context.Context) (*Reconciler, error) {
			c, err := graft.Dep[*cache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			lookup, err := graft.Dep[ports.LookupService](ctx)
			if err != nil {
				return nil, err
			}

			configStore, err := graft.Dep[ports.ConfigStore](ctx)
			if err != nil {
				return nil, err
			}

			board, err := graft.Dep[*statusboard.Board](ctx)
			if err != nil {
				return nil, err
			}

			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[*telemetry.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			metrics, err := graft.Dep[*telemetry.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(c, lookup, configStore, board, sched, log, tracer, metrics), nil
		},
	})
}
