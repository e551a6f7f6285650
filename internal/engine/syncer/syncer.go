// Package syncer copies the records of the remote store into the classification cache,
// either in full or for records edited since the last successful sync.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/urls"
	"go.trai.ch/zerr"
)

// Sync kinds, used as log attribute and metric label.
const (
	KindFull  = "full"
	KindDelta = "delta"
)

// LookupPage is the lookup kind reported for paginated sync queries.
const LookupPage = "page"

// AlarmName is the scheduler registration of the periodic delta sync.
const AlarmName = "notionSync"

// Reconciler runs full and delta syncs and keeps the periodic delta sync scheduled.
type Reconciler struct {
	cache     *cache.Cache
	lookup    ports.LookupService
	config    ports.ConfigStore
	sink      ports.StatusSink
	scheduler ports.Scheduler
	logger    ports.Logger
	tracer    ports.Tracer
	metrics   ports.Metrics

	background sync.WaitGroup
}

// New creates a Reconciler.
func New(
	c *cache.Cache,
	lookup ports.LookupService,
	config ports.ConfigStore,
	sink ports.StatusSink,
	scheduler ports.Scheduler,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Reconciler {
	return &Reconciler{
		cache:     c,
		lookup:    lookup,
		config:    config,
		sink:      sink,
		scheduler: scheduler,
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
	}
}

// FullSync marks every record URL and its variants GREEN and records the sync time.
func (r *Reconciler) FullSync(ctx context.Context) domain.SyncResult {
	cfg, err := r.config.Load()
	if err != nil {
		return r.failed(ctx, KindFull, domain.SyncResult{Full: true}, err)
	}
	if cfg.NeedsAuthentication {
		return r.failed(ctx, KindFull, domain.SyncResult{Full: true}, zerr.Wrap(domain.ErrNeedsAuthentication, KindFull))
	}
	if !cfg.LookupConfigured() {
		return r.failed(ctx, KindFull, domain.SyncResult{Full: true},
			zerr.With(zerr.Wrap(domain.ErrSyncNotConfigured, KindFull), "missing", "integrationToken, databaseId or propertyName"))
	}
	return r.sync(ctx, KindFull, cfg, time.Time{})
}

// DeltaSync syncs the records edited since the last successful sync. Without a recorded
// sync time it runs a full sync.
func (r *Reconciler) DeltaSync(ctx context.Context) domain.SyncResult {
	cfg, err := r.config.Load()
	if err != nil {
		return r.failed(ctx, KindDelta, domain.SyncResult{}, err)
	}
	if cfg.NeedsAuthentication {
		return r.failed(ctx, KindDelta, domain.SyncResult{}, zerr.Wrap(domain.ErrNeedsAuthentication, KindDelta))
	}
	if !cfg.SyncConfigured() {
		return r.failed(ctx, KindDelta, domain.SyncResult{},
			zerr.With(zerr.Wrap(domain.ErrSyncNotConfigured, KindDelta), "missing", "lastEditedPropertyName"))
	}

	last, err := r.cache.LastSync(ctx)
	if err != nil {
		return r.failed(ctx, KindDelta, domain.SyncResult{}, err)
	}
	if last.IsZero() {
		r.logger.Info("no previous sync timestamp, performing full sync instead", "kind", KindDelta)
		return r.FullSync(ctx)
	}
	return r.sync(ctx, KindDelta, cfg, last)
}

// Setup schedules the periodic delta sync every cache duration, replacing a previous schedule.
// When no sync has ever succeeded, a full sync starts in the background.
// An incompletely configured extension cancels the schedule instead.
func (r *Reconciler) Setup(ctx context.Context) error {
	cfg, err := r.config.Load()
	if err != nil {
		return err
	}

	if !cfg.SyncConfigured() {
		r.scheduler.Cancel(AlarmName)
		r.logger.Warn("sync not scheduled, extension not fully configured")
		return nil
	}

	interval := cfg.SyncInterval()
	r.scheduler.Register(AlarmName, interval, func(ctx context.Context) {
		r.logger.Info("sync alarm triggered, performing delta sync")
		r.DeltaSync(ctx)
	})
	r.logger.Info("sync scheduled", "interval", interval.String())

	last, err := r.cache.LastSync(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		r.logger.Info("no previous sync timestamp, performing initial full sync")
		// The caller's context may end with its request; the sync must not.
		bg := context.WithoutCancel(ctx)
		r.background.Go(func() {
			r.FullSync(bg)
		})
	}
	return nil
}

// RescheduleSync re-reads the configuration and replaces the periodic sync.
func (r *Reconciler) RescheduleSync(ctx context.Context) error {
	return r.Setup(ctx)
}

// Wait blocks until background syncs started by Setup have finished.
func (r *Reconciler) Wait() {
	r.background.Wait()
}

func (r *Reconciler) sync(ctx context.Context, kind string, cfg *domain.Config, since time.Time) domain.SyncResult {
	ctx, span := r.tracer.Start(ctx, "sync."+kind)
	defer span.End()

	r.logger.Info("starting sync", "kind", kind)
	result := domain.SyncResult{Full: kind == KindFull}
	target := cfg.Target()
	query := domain.PageQuery{EditedSince: since}

	for {
		page, err := r.lookup.QueryPage(ctx, target, query)
		r.metrics.ObserveLookup(LookupPage, err)
		if err != nil {
			span.RecordError(err)
			return r.failed(ctx, kind, result, err)
		}

		result.PagesProcessed += len(page.Records)
		updated, err := r.store(ctx, page.Records)
		if err != nil {
			span.RecordError(err)
			return r.failed(ctx, kind, result, err)
		}
		result.URLsUpdated += updated

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		query.Cursor = page.NextCursor
	}

	if err := r.cache.SetLastSync(ctx, r.cache.Now()); err != nil {
		span.RecordError(err)
		return r.failed(ctx, kind, result, err)
	}

	result.Success = true
	span.SetAttribute("pages", result.PagesProcessed)
	span.SetAttribute("urls", result.URLsUpdated)
	r.metrics.ObserveSync(kind, true, result.URLsUpdated)
	r.logger.Info("sync completed", "kind", kind, "pages", result.PagesProcessed, "urls", result.URLsUpdated)
	return result
}

// store writes one page of records as GREEN, each URL together with its variants.
// It returns the number of records that carried a URL.
func (r *Reconciler) store(ctx context.Context, records []domain.Record) (int, error) {
	entries := make(map[string]domain.EntryDetails)
	updated := 0
	for _, rec := range records {
		if rec.URL == "" {
			continue
		}
		updated++
		details := domain.EntryDetails{CanonicalURL: rec.URL, NotionPageURL: rec.PageURL}
		entries[rec.URL] = details
		for _, v := range urls.Variants(rec.URL) {
			entries[v] = details
		}
	}
	if err := r.cache.PutMany(ctx, entries, domain.StateGreen); err != nil {
		return 0, err
	}
	return updated, nil
}

// failed reports a sync failure. A rejected token is cleared from the configuration and
// surfaced to the UI collaborator.
func (r *Reconciler) failed(ctx context.Context, kind string, result domain.SyncResult, err error) domain.SyncResult {
	r.logger.Error(err, "kind", kind)
	result.Success = false
	result.Error = err.Error()
	r.metrics.ObserveSync(kind, false, 0)

	if domain.IsAuthError(err) {
		if uerr := r.config.Update(func(cfg *domain.Config) { cfg.ClearCredentials() }); uerr != nil {
			r.logger.Error(uerr)
		}
		status := domain.Status{
			State:               domain.StateGray,
			Error:               domain.ErrTextSyncAuth,
			NeedsAuthentication: true,
		}
		r.sink.Publish(ctx, status.Stamp(r.cache.Now()))
	}
	return result
}
