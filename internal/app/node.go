package app

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"      //nolint:depguard // Wired in app layer
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"          //nolint:depguard // Wired in app layer
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"      //nolint:depguard // Wired in app layer
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/statusboard" //nolint:depguard // Wired in app layer
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry"   //nolint:depguard // Wired in app layer
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/autocheck"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/classifier"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/scheduler"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/syncer"
	"github.com/grindlemire/graft"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			classifier.NodeID,
			syncer.NodeID,
			cache.NodeID,
			autocheck.NodeID,
			statusboard.NodeID,
			scheduler.NodeID,
			config.NodeID,
			kv.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			telemetry.MetricsNodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	engine, err := graft.Dep[*classifier.Engine](ctx)
	if err != nil {
		return nil, err
	}

	reconciler, err := graft.Dep[*syncer.Reconciler](ctx)
	if err != nil {
		return nil, err
	}

	c, err := graft.Dep[*cache.Cache](ctx)
	if err != nil {
		return nil, err
	}

	checks, err := graft.Dep[*autocheck.Manager](ctx)
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

	configStore, err := graft.Dep[ports.ConfigStore](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.KVStore](ctx)
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

	a := New(engine, reconciler, c, checks, board, configStore, log).WithMetrics(metrics.Handler())
	a.OnClose(func(context.Context) error { return store.Close() })
	a.OnClose(tracer.Shutdown)
	a.OnClose(func(context.Context) error {
		sched.Stop()
		return nil
	})
	return a, nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    a,
		Logger: log,
	}, nil
}
