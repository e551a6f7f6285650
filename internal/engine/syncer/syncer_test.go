package syncer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/telemetry"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports/mocks"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/cache"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var syncTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (s *recordingSink) Publish(_ context.Context, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

type fixture struct {
	reconciler *syncer.Reconciler
	cache      *cache.Cache
	config     ports.ConfigStore
	lookup     *mocks.MockLookupService
	scheduler  *mocks.MockScheduler
	sink       *recordingSink
}

func syncConfig() *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.IntegrationToken = "secret_token"
	cfg.DatabaseID = "0123456789abcdef0123456789abcdef"
	cfg.PropertyName = "URL"
	cfg.LastEditedPropertyName = "Last edited"
	return cfg
}

func newFixture(t *testing.T, cfg *domain.Config) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()

	f := &fixture{
		config:    config.NewMemory(cfg),
		lookup:    mocks.NewMockLookupService(ctrl),
		scheduler: mocks.NewMockScheduler(ctrl),
		sink:      &recordingSink{},
	}
	f.cache = cache.New(kv.NewMemoryStore(), f.config, cache.WithClock(func() time.Time { return syncTime }))
	f.reconciler = syncer.New(f.cache, f.lookup, f.config, f.sink, f.scheduler, log,
		telemetry.NewNoOpTracer(), telemetry.NoOpMetrics{})
	return f
}

func twoPages(f *fixture, since time.Time) {
	gomock.InOrder(
		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), domain.PageQuery{EditedSince: since}).
			Return(domain.RecordPage{
				Records: []domain.Record{
					{ID: "1", URL: "https://example.com/a", PageURL: "https://notion.so/1"},
					{ID: "2"},
				},
				HasMore:    true,
				NextCursor: "cursor-2",
			}, nil),
		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), domain.PageQuery{Cursor: "cursor-2", EditedSince: since}).
			Return(domain.RecordPage{
				Records: []domain.Record{{ID: "3", URL: "https://docs.example.org/", PageURL: "https://notion.so/3"}},
			}, nil),
	)
}

func TestFullSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, syncConfig())
	require.NoError(t, f.cache.Put(ctx, "http://www.example.com/a", domain.StateRed, domain.EntryDetails{}))
	twoPages(f, time.Time{})

	result := f.reconciler.FullSync(ctx)
	assert.Equal(t, domain.SyncResult{Success: true, Full: true, PagesProcessed: 3, URLsUpdated: 2}, result)

	for _, u := range []string{
		"https://example.com/a",
		"http://example.com/a",
		"https://www.example.com/a",
		"http://www.example.com/a",
	} {
		entry, err := f.cache.Get(ctx, u)
		require.NoError(t, err)
		require.NotNil(t, entry, u)
		assert.Equal(t, domain.StateGreen, entry.Status, u)
		assert.Equal(t, "https://example.com/a", entry.CanonicalURL, u)
		assert.Equal(t, "https://notion.so/1", entry.NotionPageURL, u)
	}

	entry, err := f.cache.Get(ctx, "https://docs.example.org")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "https://docs.example.org/", entry.CanonicalURL)

	last, err := f.cache.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, syncTime.Equal(last))
}

func TestFullSync_NotConfigured(t *testing.T) {
	f := newFixture(t, domain.DefaultConfig())

	result := f.reconciler.FullSync(context.Background())
	assert.False(t, result.Success)
	assert.True(t, result.Full)
	assert.Contains(t, result.Error, domain.ErrSyncNotConfigured.Error())
}

func TestDeltaSync_WithoutTimestampIsFullSync(t *testing.T) {
	ctx := context.Background()

	full := newFixture(t, syncConfig())
	twoPages(full, time.Time{})
	fullResult := full.reconciler.FullSync(ctx)

	delta := newFixture(t, syncConfig())
	twoPages(delta, time.Time{})
	deltaResult := delta.reconciler.DeltaSync(ctx)

	assert.Equal(t, fullResult, deltaResult)
	assert.True(t, deltaResult.Full)

	fullEntries, err := full.cache.All(ctx)
	require.NoError(t, err)
	deltaEntries, err := delta.cache.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, fullEntries, deltaEntries)
}

func TestDeltaSync_FiltersByLastSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, syncConfig())
	previous := syncTime.Add(-time.Hour)
	require.NoError(t, f.cache.SetLastSync(ctx, previous))

	f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, target domain.Target, query domain.PageQuery) (domain.RecordPage, error) {
			assert.Equal(t, "Last edited", target.EditedProperty)
			assert.True(t, previous.Equal(query.EditedSince))
			return domain.RecordPage{Records: []domain.Record{{ID: "1", URL: "https://example.com/new"}}}, nil
		})

	result := f.reconciler.DeltaSync(ctx)
	assert.Equal(t, domain.SyncResult{Success: true, PagesProcessed: 1, URLsUpdated: 1}, result)

	last, err := f.cache.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, syncTime.Equal(last))
}

func TestDeltaSync_RequiresEditedProperty(t *testing.T) {
	cfg := syncConfig()
	cfg.LastEditedPropertyName = ""
	f := newFixture(t, cfg)

	result := f.reconciler.DeltaSync(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, domain.ErrSyncNotConfigured.Error())
}

func TestSync_Errors(t *testing.T) {
	t.Run("transient error keeps timestamp", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, syncConfig())
		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.RecordPage{}, &domain.LookupError{StatusCode: 502})

		result := f.reconciler.FullSync(ctx)
		assert.False(t, result.Success)
		assert.Equal(t, "notion api error: 502 Bad Gateway", result.Error)

		last, err := f.cache.LastSync(ctx)
		require.NoError(t, err)
		assert.True(t, last.IsZero())
		assert.Empty(t, f.sink.statuses)
	})

	t.Run("pending authentication skips the query", func(t *testing.T) {
		ctx := context.Background()
		cfg := syncConfig()
		cfg.NeedsAuthentication = true
		f := newFixture(t, cfg)
		f.scheduler.EXPECT().Cancel(syncer.AlarmName)

		full := f.reconciler.FullSync(ctx)
		assert.False(t, full.Success)
		assert.Contains(t, full.Error, domain.ErrNeedsAuthentication.Error())

		delta := f.reconciler.DeltaSync(ctx)
		assert.False(t, delta.Success)
		assert.Contains(t, delta.Error, domain.ErrNeedsAuthentication.Error())

		require.NoError(t, f.reconciler.Setup(ctx))
		assert.Empty(t, f.sink.statuses)
	})

	t.Run("unauthorized clears credentials", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, syncConfig())
		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.RecordPage{}, &domain.LookupError{StatusCode: 401})

		result := f.reconciler.FullSync(ctx)
		assert.False(t, result.Success)

		cfg, err := f.config.Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.IntegrationToken)
		assert.True(t, cfg.NeedsAuthentication)

		require.Len(t, f.sink.statuses, 1)
		assert.Equal(t, domain.StateGray, f.sink.statuses[0].State)
		assert.Equal(t, "Error: "+domain.ErrTextSyncAuth, f.sink.statuses[0].Text)
		assert.True(t, f.sink.statuses[0].NeedsAuthentication)
	})
}

func TestSetup(t *testing.T) {
	t.Run("not configured cancels the alarm", func(t *testing.T) {
		cfg := syncConfig()
		cfg.LastEditedPropertyName = ""
		f := newFixture(t, cfg)
		f.scheduler.EXPECT().Cancel(syncer.AlarmName)

		require.NoError(t, f.reconciler.Setup(context.Background()))
	})

	t.Run("schedules delta sync and runs initial full sync", func(t *testing.T) {
		ctx := context.Background()
		cfg := syncConfig()
		cfg.CacheDuration = 30
		f := newFixture(t, cfg)

		var alarm func(context.Context)
		f.scheduler.EXPECT().Register(syncer.AlarmName, 30*time.Minute, gomock.Any()).Do(
			func(_ string, _ time.Duration, fn func(context.Context)) { alarm = fn })
		twoPages(f, time.Time{})

		require.NoError(t, f.reconciler.Setup(ctx))
		f.reconciler.Wait()

		last, err := f.cache.LastSync(ctx)
		require.NoError(t, err)
		assert.True(t, syncTime.Equal(last), "initial full sync recorded its time")

		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.Target, query domain.PageQuery) (domain.RecordPage, error) {
				assert.True(t, syncTime.Equal(query.EditedSince), "alarm runs a delta sync")
				return domain.RecordPage{}, nil
			})
		require.NotNil(t, alarm)
		alarm(ctx)
	})

	t.Run("initial full sync outlives the caller", func(t *testing.T) {
		f := newFixture(t, syncConfig())
		f.scheduler.EXPECT().Register(syncer.AlarmName, time.Hour, gomock.Any())

		release := make(chan struct{})
		f.lookup.EXPECT().QueryPage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ domain.Target, _ domain.PageQuery) (domain.RecordPage, error) {
				<-release
				if err := ctx.Err(); err != nil {
					return domain.RecordPage{}, err
				}
				return domain.RecordPage{Records: []domain.Record{
					{ID: "1", URL: "https://example.com/a", PageURL: "https://notion.so/1"},
				}}, nil
			})

		reqCtx, cancel := context.WithCancel(context.Background())
		require.NoError(t, f.reconciler.RescheduleSync(reqCtx))
		cancel()
		close(release)
		f.reconciler.Wait()

		ctx := context.Background()
		last, err := f.cache.LastSync(ctx)
		require.NoError(t, err)
		assert.True(t, syncTime.Equal(last))

		entry, err := f.cache.Get(ctx, "https://example.com/a")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, domain.StateGreen, entry.Status)
	})

	t.Run("reschedule skips the full sync once synced", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, syncConfig())
		require.NoError(t, f.cache.SetLastSync(ctx, syncTime))
		f.scheduler.EXPECT().Register(syncer.AlarmName, time.Hour, gomock.Any()).Times(1)

		require.NoError(t, f.reconciler.RescheduleSync(ctx))
		f.reconciler.Wait()
	})
}
