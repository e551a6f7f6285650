// Package classifier decides the status of a URL from the classification cache and, when
// asked to reconcile, from the remote record store.
package classifier

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/urls"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Check modes, used as the "mode" log attribute and metric label.
const (
	ModeCacheOnly  = "cache_only"
	ModeReconcile  = "reconcile"
	ModeAggressive = "aggressive"
)

// Lookup kinds reported to metrics.
const (
	LookupVariants  = "variants"
	LookupAncestors = "ancestors"
)

// Engine classifies URLs. It holds no global state; every collaborator is a field.
type Engine struct {
	cache   *cache.Cache
	lookup  ports.LookupService
	config  ports.ConfigStore
	sink    ports.StatusSink
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates an Engine.
func New(
	c *cache.Cache,
	lookup ports.LookupService,
	config ports.ConfigStore,
	sink ports.StatusSink,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Engine {
	return &Engine{
		cache:    c,
		lookup:   lookup,
		config:   config,
		sink:     sink,
		logger:   logger,
		tracer:   tracer,
		metrics:  metrics,
		inFlight: make(map[string]struct{}),
	}
}

// CacheOnly classifies url from the cache alone. When the cache is inconclusive and
// aggressive caching is enabled, unexpired GREEN entries are scanned for related URLs.
//
// A URL that is already being checked is dropped with domain.ErrAlreadyInFlight.
func (e *Engine) CacheOnly(ctx context.Context, url string) (domain.Status, error) {
	return e.run(ctx, ModeCacheOnly, url, e.cacheOnly)
}

// Reconcile publishes a provisional status from the cache, then queries the remote store
// for the URL's variants and, if allowed, its ancestors, and persists what it learns.
//
// A URL that is already being checked is dropped with domain.ErrAlreadyInFlight.
func (e *Engine) Reconcile(ctx context.Context, url string) (domain.Status, error) {
	return e.run(ctx, ModeReconcile, url, e.reconcile)
}

// CheckRulesOnly reports whether url is excluded by the domain rules. An excluded URL also
// publishes the GRAY excluded status.
func (e *Engine) CheckRulesOnly(ctx context.Context, url string) (bool, error) {
	cfg, err := e.config.Load()
	if err != nil {
		return false, err
	}
	if !urls.ResolveRule(url, cfg.DomainRules).Disabled() {
		return false, nil
	}

	e.emit(ctx, url, domain.Status{State: domain.StateGray, Text: domain.TextExcluded, DomainExcluded: true})
	return true, nil
}

// ClearCache removes the cache entry stored for url. It reports whether one existed.
func (e *Engine) ClearCache(ctx context.Context, url string) (bool, error) {
	removed, err := e.cache.Remove(ctx, url)
	if err != nil {
		return false, err
	}
	if removed {
		e.logger.Info("cache cleared", "url", url)
	} else {
		e.logger.Debug("url not found in cache, nothing to clear", "url", url)
	}
	return removed, nil
}

type checkFunc func(ctx context.Context, p *plan) domain.Status

func (e *Engine) run(ctx context.Context, mode, url string, check checkFunc) (domain.Status, error) {
	if url == "" {
		e.logger.Warn("received empty url", "mode", mode)
		return e.finish(ctx, mode, url, domain.Status{State: domain.StateGray, Text: domain.TextNoURL}), nil
	}

	if !e.acquire(url) {
		e.logger.Debug("already checking url, skipping", "mode", mode, "url", url)
		return domain.Status{}, zerr.With(zerr.Wrap(domain.ErrAlreadyInFlight, mode), "url", url)
	}
	defer e.release(url)

	ctx, span := e.tracer.Start(ctx, "classifier."+mode)
	defer span.End()
	span.SetAttribute("url", url)

	e.logger.Info("starting check", "mode", mode, "url", url)

	var status domain.Status
	if p, early := e.prepare(mode, url); early != nil {
		status = *early
	} else {
		span.SetAttribute("rule", p.resolution.Kind)
		span.SetAttribute("probe", len(p.variants)+len(p.ancestors))
		status = check(ctx, p)
	}

	span.SetAttribute("state", string(status.State))
	e.logger.Info("finished check", "mode", mode, "url", url, "state", status.State)
	return e.finish(ctx, mode, url, status), nil
}

func (e *Engine) acquire(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[url]; busy {
		return false
	}
	e.inFlight[url] = struct{}{}
	return true
}

func (e *Engine) release(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, url)
}

// plan is the set of URLs a check probes.
type plan struct {
	url        string
	cfg        *domain.Config
	resolution domain.RuleResolution
	variants   []string
	ancestors  []string
}

// prepare loads the configuration and resolves the probe set. A non-nil status ends the check early.
func (e *Engine) prepare(mode, url string) (*plan, *domain.Status) {
	cfg, err := e.config.Load()
	if err != nil {
		e.logger.Error(err, "mode", mode, "url", url)
		return nil, &domain.Status{State: domain.StateGray, Error: err.Error()}
	}

	if cfg.NeedsAuthentication {
		e.logger.Warn("notion authentication required, skipping check", "mode", mode, "url", url)
		return nil, &domain.Status{
			State:               domain.StateGray,
			Error:               domain.ErrTextAuthFailed,
			NeedsAuthentication: true,
		}
	}

	if !cfg.LookupConfigured() {
		e.logger.Error(zerr.With(zerr.Wrap(domain.ErrNotConfigured, mode), "url", url))
		return nil, &domain.Status{State: domain.StateGray, Error: domain.ErrTextNotConfigured}
	}

	resolution := urls.ResolveRule(url, cfg.DomainRules)
	if resolution.Disabled() {
		e.logger.Info("url excluded by domain rules", "mode", mode, "url", url)
		return nil, &domain.Status{State: domain.StateGray, Text: domain.TextExcluded, DomainExcluded: true}
	}

	p := &plan{
		url:        url,
		cfg:        cfg,
		resolution: resolution,
		variants:   urls.Variants(url),
	}
	if !resolution.MatchOnlySelf() {
		p.ancestors = slices.DeleteFunc(urls.Ancestors(url, resolution), func(a string) bool {
			return slices.Contains(p.variants, a)
		})
	}
	e.logger.Debug("urls generated for checking", "mode", mode, "url", url,
		"rule", resolution.Kind.String(), "variants", len(p.variants), "ancestors", len(p.ancestors))
	return p, nil
}

// snapshot holds the live cache entries of a plan's URLs.
type snapshot struct {
	variants  map[string]*domain.CacheEntry
	ancestors map[string]*domain.CacheEntry
}

func (e *Engine) readCache(ctx context.Context, p *plan) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := e.cache.BulkGet(gctx, p.variants)
		snap.variants = entries
		return err
	})
	g.Go(func() error {
		entries, err := e.cache.BulkGet(gctx, p.ancestors)
		snap.ancestors = entries
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// verdict is what the cache alone says about a plan.
type verdict struct {
	// green is the GREEN entry of one of the URL's own variants.
	green    *domain.CacheEntry
	orange   bool
	matching []string
	// allRed holds when every probed URL is cached RED.
	allRed bool
}

func (v verdict) conclusive() bool {
	return v.green != nil || v.orange || v.allRed
}

func classify(p *plan, snap snapshot) verdict {
	for _, u := range p.variants {
		if entry := snap.variants[u]; entry != nil && entry.Status == domain.StateGreen {
			return verdict{green: entry}
		}
	}

	v := verdict{allRed: true}
	visit := func(u string, entry *domain.CacheEntry) {
		switch {
		case entry == nil:
			v.allRed = false
		case entry.Status == domain.StateGreen:
			// Only ancestors get here: a present ancestor makes the URL related, not present.
			v.orange, v.allRed = true, false
			v.matching = appendUnique(v.matching, cmp.Or(entry.CanonicalURL, u))
		case entry.Status == domain.StateOrange:
			v.orange, v.allRed = true, false
			for _, m := range entry.MatchingURLs {
				v.matching = appendUnique(v.matching, m)
			}
		}
	}
	for _, u := range p.variants {
		visit(u, snap.variants[u])
	}
	for _, u := range p.ancestors {
		visit(u, snap.ancestors[u])
	}
	return v
}

// status renders a conclusive verdict.
func (v verdict) status() domain.Status {
	switch {
	case v.green != nil:
		return domain.Status{
			State:         domain.StateGreen,
			CanonicalURL:  v.green.CanonicalURL,
			NotionPageURL: v.green.NotionPageURL,
		}
	case v.orange:
		return domain.Status{State: domain.StateOrange, MatchingURLs: v.matching}
	case v.allRed:
		return domain.Status{State: domain.StateRed}
	default:
		return domain.Status{State: domain.StateGray}
	}
}

func (e *Engine) cacheOnly(ctx context.Context, p *plan) domain.Status {
	snap, err := e.readCache(ctx, p)
	if err != nil {
		e.logger.Error(err, "mode", ModeCacheOnly, "url", p.url)
		return domain.Status{State: domain.StateGray, Error: err.Error()}
	}

	v := classify(p, snap)
	e.logger.Debug("cache check summary", "mode", ModeCacheOnly, "url", p.url,
		"green", v.green != nil, "orange", v.orange, "allRed", v.allRed)

	if v.green != nil {
		e.backfill(ctx, p, snap, v.green)
	}
	if v.conclusive() {
		return v.status()
	}

	if !p.cfg.AggressiveCaching {
		return domain.Status{State: domain.StateGray, Text: domain.TextUnclear}
	}
	return e.aggressive(ctx, p)
}

// backfill writes the GREEN hit to every variant not already cached with the same canonical URL.
func (e *Engine) backfill(ctx context.Context, p *plan, snap snapshot, hit *domain.CacheEntry) {
	details := domain.EntryDetails{CanonicalURL: hit.CanonicalURL, NotionPageURL: hit.NotionPageURL}
	pending := make(map[string]domain.EntryDetails, len(p.variants))
	for _, u := range p.variants {
		if entry := snap.variants[u]; entry != nil && entry.Status == domain.StateGreen && entry.CanonicalURL == hit.CanonicalURL {
			continue
		}
		pending[u] = details
	}
	e.persist(p.url, e.cache.PutMany(ctx, pending, domain.StateGreen))
}

// aggressive matches the URL against every unexpired GREEN entry by host and path prefix.
func (e *Engine) aggressive(ctx context.Context, p *plan) domain.Status {
	ctx, span := e.tracer.Start(ctx, "classifier."+ModeAggressive)
	defer span.End()

	greens, err := e.cache.ScanGreen(ctx)
	if err != nil {
		span.RecordError(err)
		e.logger.Error(err, "mode", ModeAggressive, "url", p.url)
		return domain.Status{State: domain.StateGray, Text: domain.TextAggressiveFail}
	}

	var canonical []string
	for _, g := range greens {
		if g.CanonicalURL != "" {
			canonical = append(canonical, g.CanonicalURL)
		}
	}
	span.SetAttribute("greens", len(canonical))

	if len(canonical) == 0 {
		e.logger.Info("no valid GREEN entries in cache", "mode", ModeAggressive, "url", p.url)
		e.persist(p.url, e.cache.Put(ctx, p.url, domain.StateRed, domain.EntryDetails{}))
		return domain.Status{State: domain.StateRed}
	}

	var candidates []string
	if p.resolution.AllowsPartials {
		candidates = urls.Probe(p.variants, p.ancestors)
	}
	matches := prefixMatches(candidates, canonical)
	if len(matches) == 0 {
		e.persist(p.url, e.cache.Put(ctx, p.url, domain.StateRed, domain.EntryDetails{}))
		return domain.Status{State: domain.StateRed}
	}

	e.persist(p.url, e.cache.Put(ctx, p.url, domain.StateOrange, domain.EntryDetails{MatchingURLs: matches}))
	return domain.Status{State: domain.StateOrange, MatchingURLs: matches}
}

// prefixMatches returns the entries of greens that share a hostname with one of candidates
// and whose path starts with that candidate's path, excluding identical URLs.
func prefixMatches(candidates, greens []string) []string {
	var matches []string
	for _, g := range greens {
		green, ok := urls.Split(g)
		if !ok {
			continue
		}
		for _, c := range candidates {
			probe, ok := urls.Split(c)
			if !ok {
				continue
			}
			if probe.Hostname == green.Hostname &&
				strings.HasPrefix(green.Path, probe.Path) &&
				probe.Href != green.Href {
				matches = appendUnique(matches, g)
				break
			}
		}
	}
	return matches
}

func (e *Engine) reconcile(ctx context.Context, p *plan) domain.Status {
	provisional := domain.Status{State: domain.StateGray}
	if snap, err := e.readCache(ctx, p); err != nil {
		e.logger.Error(err, "mode", ModeReconcile, "url", p.url)
	} else {
		provisional = classify(p, snap).status()
	}
	provisional.Text = domain.TextCheckingRemote
	provisional.Provisional = true
	e.emit(ctx, p.url, provisional)

	target := p.cfg.Target()

	records, err := e.query(ctx, LookupVariants, target, p.variants)
	if err != nil {
		return e.lookupFailed(p, err)
	}
	if len(records) > 0 {
		details := domain.EntryDetails{
			CanonicalURL:  cmp.Or(records[0].URL, p.variants[0]),
			NotionPageURL: records[0].PageURL,
		}
		pending := make(map[string]domain.EntryDetails, len(p.variants))
		for _, u := range p.variants {
			pending[u] = details
		}
		e.persist(p.url, e.cache.PutMany(ctx, pending, domain.StateGreen))
		return domain.Status{
			State:         domain.StateGreen,
			CanonicalURL:  details.CanonicalURL,
			NotionPageURL: details.NotionPageURL,
		}
	}
	e.persistRed(ctx, p.url, p.variants)

	if len(p.ancestors) > 0 && p.resolution.AllowsPartials {
		records, err := e.query(ctx, LookupAncestors, target, p.ancestors)
		if err != nil {
			return e.lookupFailed(p, err)
		}

		var matching []string
		found := make(map[string]domain.EntryDetails, len(records))
		for _, r := range records {
			if r.URL == "" {
				continue
			}
			matching = appendUnique(matching, r.URL)
			if _, ok := found[r.URL]; !ok {
				found[r.URL] = domain.EntryDetails{CanonicalURL: r.URL, NotionPageURL: r.PageURL}
			}
		}

		if len(matching) > 0 {
			e.persist(p.url, e.cache.Put(ctx, p.url, domain.StateOrange, domain.EntryDetails{MatchingURLs: matching}))
			e.persist(p.url, e.cache.PutMany(ctx, found, domain.StateGreen))
			return domain.Status{State: domain.StateOrange, MatchingURLs: matching}
		}
		e.persistRed(ctx, p.url, p.ancestors)
	}

	e.persist(p.url, e.cache.Put(ctx, p.url, domain.StateRed, domain.EntryDetails{}))
	return domain.Status{State: domain.StateRed}
}

func (e *Engine) query(ctx context.Context, kind string, target domain.Target, probe []string) ([]domain.Record, error) {
	ctx, span := e.tracer.Start(ctx, "lookup."+kind)
	defer span.End()
	span.SetAttribute("urls", len(probe))

	records, err := e.lookup.QueryExists(ctx, target, probe)
	e.metrics.ObserveLookup(kind, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("records", len(records))
	e.logger.Debug("lookup finished", "mode", ModeReconcile, "kind", kind, "urls", len(probe), "records", len(records))
	return records, nil
}

// lookupFailed turns a remote store failure into a GRAY status. A rejected token is cleared
// from the configuration so the user is asked to authenticate again.
func (e *Engine) lookupFailed(p *plan, err error) domain.Status {
	e.logger.Error(err, "mode", ModeReconcile, "url", p.url)

	if domain.IsAuthError(err) {
		if uerr := e.config.Update(func(cfg *domain.Config) { cfg.ClearCredentials() }); uerr != nil {
			e.logger.Error(uerr)
		}
		return domain.Status{
			State:               domain.StateGray,
			Error:               domain.ErrTextAuthFailed,
			NeedsAuthentication: true,
		}
	}

	return domain.Status{State: domain.StateGray, Error: "API Error: " + lookupMessage(err)}
}

func lookupMessage(err error) string {
	var lookupErr *domain.LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Error()
	}
	return err.Error()
}

func (e *Engine) persistRed(ctx context.Context, url string, probe []string) {
	n, err := e.cache.PutRedIfChanged(ctx, probe)
	if err != nil {
		e.persist(url, err)
		return
	}
	e.logger.Debug("cached as RED", "url", url, "written", n, "probed", len(probe))
}

// persist logs a failed cache write. The status is still reported.
func (e *Engine) persist(url string, err error) {
	if err != nil {
		e.logger.Error(err, "url", url)
	}
}

// emit stamps and publishes status without counting it as a finished classification.
func (e *Engine) emit(ctx context.Context, url string, status domain.Status) domain.Status {
	status.URL = url
	status = status.Stamp(e.cache.Now())
	e.sink.Publish(ctx, status)
	return status
}

func (e *Engine) finish(ctx context.Context, mode, url string, status domain.Status) domain.Status {
	status = e.emit(ctx, url, status)
	e.metrics.ObserveClassification(mode, string(status.State))
	return status
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
