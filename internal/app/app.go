// Package app implements the application layer for notionstatus.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/daemon"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/statusboard"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/autocheck"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/classifier"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/syncer"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/urls"
	"go.trai.ch/zerr"
)

// App exposes the UI collaborator operations to the CLI and the HTTP API.
type App struct {
	engine    *classifier.Engine
	syncer    *syncer.Reconciler
	cache     *cache.Cache
	autocheck *autocheck.Manager
	board     *statusboard.Board
	config    ports.ConfigStore
	logger    ports.Logger

	metrics http.Handler
	closers []func(context.Context) error
}

// New creates a new App instance.
func New(
	engine *classifier.Engine,
	reconciler *syncer.Reconciler,
	c *cache.Cache,
	checks *autocheck.Manager,
	board *statusboard.Board,
	configStore ports.ConfigStore,
	log ports.Logger,
) *App {
	return &App{
		engine:    engine,
		syncer:    reconciler,
		cache:     c,
		autocheck: checks,
		board:     board,
		config:    configStore,
		logger:    log,
	}
}

// WithMetrics serves metrics on /metrics of the HTTP API.
func (a *App) WithMetrics(h http.Handler) *App {
	a.metrics = h
	return a
}

// OnClose registers fn to run when the App is closed. Closers run in reverse order.
func (a *App) OnClose(fn func(context.Context) error) *App {
	a.closers = append(a.closers, fn)
	return a
}

// Close stops auto-checks, waits for background syncs and runs the registered closers.
func (a *App) Close(ctx context.Context) error {
	a.autocheck.Stop()
	a.syncer.Wait()

	var errs []error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CacheOnly classifies url from the cache.
func (a *App) CacheOnly(ctx context.Context, url string) (domain.Status, error) {
	return a.engine.CacheOnly(ctx, url)
}

// Reconcile classifies url against Notion and updates the cache.
func (a *App) Reconcile(ctx context.Context, url string) (domain.Status, error) {
	return a.engine.Reconcile(ctx, url)
}

// Rules reports how the domain rules apply to url. Excluded URLs also publish the excluded status.
func (a *App) Rules(ctx context.Context, url string) (domain.RulesReport, error) {
	cfg, err := a.config.Load()
	if err != nil {
		return domain.RulesReport{}, err
	}

	if _, err := a.engine.CheckRulesOnly(ctx, url); err != nil {
		return domain.RulesReport{}, err
	}

	res := urls.ResolveRule(url, cfg.DomainRules)
	if res.Disabled() {
		return domain.NewRulesReport(url, res, nil, nil), nil
	}

	variants := urls.Variants(url)
	var ancestors []string
	if !res.MatchOnlySelf() {
		ancestors = slices.DeleteFunc(urls.Ancestors(url, res), func(u string) bool {
			return slices.Contains(variants, u)
		})
	}
	return domain.NewRulesReport(url, res, variants, ancestors), nil
}

// ClearCache removes the cache entry for url and reports whether one existed.
func (a *App) ClearCache(ctx context.Context, url string) (bool, error) {
	return a.engine.ClearCache(ctx, url)
}

// ClearAll removes every cache entry and returns how many were removed.
func (a *App) ClearAll(ctx context.Context) (int, error) {
	n, err := a.cache.Clear(ctx)
	if err != nil {
		return 0, err
	}
	a.logger.Info("cache cleared", "entries", n)
	return n, nil
}

// CacheEntry returns the live cache entry for url, or nil.
func (a *App) CacheEntry(ctx context.Context, url string) (*domain.CacheEntry, error) {
	return a.cache.Get(ctx, url)
}

// CacheEntries returns every stored cache entry, expired ones included.
func (a *App) CacheEntries(ctx context.Context) ([]domain.CacheEntry, error) {
	return a.cache.All(ctx)
}

// CacheTTL returns the configured GREEN lifetime.
func (a *App) CacheTTL() time.Duration {
	cfg, err := a.config.Load()
	if err != nil {
		return domain.DefaultConfig().CacheTTL()
	}
	return cfg.CacheTTL()
}

// Now returns the cache clock.
func (a *App) Now() time.Time {
	return a.cache.Now()
}

// FullSync runs a full sync.
func (a *App) FullSync(ctx context.Context) domain.SyncResult {
	return a.syncer.FullSync(ctx)
}

// DeltaSync runs a delta sync, falling back to a full sync when none happened yet.
func (a *App) DeltaSync(ctx context.Context) domain.SyncResult {
	return a.syncer.DeltaSync(ctx)
}

// RescheduleSync replaces the periodic sync using the current configuration.
func (a *App) RescheduleSync(ctx context.Context) error {
	return a.syncer.RescheduleSync(ctx)
}

// Status returns the last published status.
func (a *App) Status(ctx context.Context) domain.Status {
	return a.board.Current(ctx)
}

// Events streams every status published after the call until ctx is done.
func (a *App) Events(ctx context.Context) <-chan domain.Status {
	return a.board.Subscribe(ctx)
}

// Navigate records that session now shows url, classifies it from the cache and arms the auto-check.
func (a *App) Navigate(ctx context.Context, session, url string) (domain.Status, error) {
	a.autocheck.Navigate(session, url)

	status, err := a.engine.CacheOnly(ctx, url)
	if err != nil {
		return status, err
	}
	a.autocheck.Observe(session, status)
	return status, nil
}

// ReconcileSession runs a manual reconciled check for session and restarts its auto-check delay.
func (a *App) ReconcileSession(ctx context.Context, session, url string) (domain.Status, error) {
	status, err := a.engine.Reconcile(ctx, url)
	if err != nil {
		return status, err
	}
	a.autocheck.Observe(session, status)
	a.autocheck.Rearm(session, url)
	return status, nil
}

// CloseSession cancels the auto-check of session.
func (a *App) CloseSession(session string) {
	a.autocheck.Forget(session)
}

// Config returns the effective configuration.
func (a *App) Config() (*domain.Config, error) {
	return a.config.Load()
}

// ConfigPath returns the location of the configuration file.
func (a *App) ConfigPath() string {
	return a.config.Path()
}

// ConfigValue returns the effective value of key.
func (a *App) ConfigValue(key string) (any, error) {
	cfg, err := a.config.Load()
	if err != nil {
		return nil, err
	}
	return config.Get(cfg, key)
}

// ConfigKeys lists the keys accepted by ConfigValue and SetConfigValue.
func (a *App) ConfigKeys() []string {
	return config.Keys()
}

// SetConfigValue parses value into key and persists the configuration.
func (a *App) SetConfigValue(key, value string) error {
	// Reject unknown keys and malformed values before touching the file.
	if err := config.Set(domain.DefaultConfig(), key, value); err != nil {
		return err
	}
	var setErr error
	if err := a.config.Update(func(cfg *domain.Config) {
		setErr = config.Set(cfg, key, value)
	}); err != nil {
		return zerr.With(err, "key", key)
	}
	if setErr != nil {
		return setErr
	}
	a.logger.Info("configuration updated", "key", key, "path", a.config.Path())
	return nil
}

// ServeOptions configures the HTTP API.
type ServeOptions struct {
	// Listen overrides the configured listen address.
	Listen string
	// IdleTimeout stops the service after this long without requests. Zero disables it.
	IdleTimeout time.Duration
	// Ready receives the bound address once the service accepts requests.
	Ready func(addr string)
}

// Serve runs the HTTP API with the periodic sync and the config watcher until ctx is done.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := a.config.Load()
	if err != nil {
		return err
	}
	listen := cfg.Server.Listen
	if opts.Listen != "" {
		listen = opts.Listen
	}

	watcher := config.NewWatcher(a.config, a.logger, func(prev, next *domain.Config) {
		a.configChanged(ctx, prev, next)
	})
	if err := watcher.Start(ctx); err != nil {
		a.logger.Warn("config watcher not started", "error", err.Error())
	} else {
		defer func() { _ = watcher.Stop() }()
	}

	if err := a.syncer.Setup(ctx); err != nil {
		a.logger.Error(zerr.Wrap(err, "sync setup"))
	}

	server := daemon.NewServer(a, daemon.NewLifecycle(opts.IdleTimeout), a.logger, a.metrics)
	err = server.Serve(ctx, listen, func(addr net.Addr) {
		if opts.Ready != nil {
			opts.Ready(addr.String())
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// configChanged applies a reloaded configuration to the running service.
func (a *App) configChanged(ctx context.Context, prev, next *domain.Config) {
	if prev == nil {
		return
	}

	if prev.LogLevel != next.LogLevel {
		a.logger.SetLevel(next.LogLevel)
	}

	if syncSettingsChanged(prev, next) {
		a.logger.Info("sync settings changed, rescheduling sync")
		if err := a.syncer.RescheduleSync(ctx); err != nil {
			a.logger.Error(err)
		}
	}

	if autoCheckSettingsChanged(prev, next) {
		a.autocheck.RearmAll()
	}
}

func syncSettingsChanged(prev, next *domain.Config) bool {
	return prev.CacheDuration != next.CacheDuration ||
		prev.Target() != next.Target()
}

func autoCheckSettingsChanged(prev, next *domain.Config) bool {
	return prev.AutoCheckEnabled != next.AutoCheckEnabled ||
		prev.AutoCheckDelay != next.AutoCheckDelay ||
		prev.AutoCheckStates != next.AutoCheckStates
}
