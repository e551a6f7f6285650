package telemetry

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/grindlemire/graft"
)

const (
	// TracerNodeID is the unique identifier for the tracer Graft node.
	TracerNodeID graft.ID = "adapter.tracer"
	// MetricsNodeID is the unique identifier for the Prometheus metrics Graft node.
	MetricsNodeID graft.ID = "adapter.metrics"
)

func init() {
	graft.Register(graft.Node[*Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Tracer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return Setup(log), nil
		},
	})

	graft.Register(graft.Node[*Prometheus]{
		ID:        MetricsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Prometheus, error) {
			return NewPrometheus(), nil
		},
	})
}
