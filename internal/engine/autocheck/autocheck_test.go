package autocheck_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/config"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports/mocks"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/engine/autocheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type check struct {
	url string
	at  time.Duration
}

type fakeChecker struct {
	mu     sync.Mutex
	start  time.Time
	result domain.State
	checks []check
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{start: time.Now(), result: domain.StateRed}
}

func (f *fakeChecker) Reconcile(_ context.Context, url string) (domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, check{url: url, at: time.Since(f.start)})
	return domain.Status{URL: url, State: f.result}, nil
}

func (f *fakeChecker) Checks() []check {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]check(nil), f.checks...)
}

func enabled() *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.AutoCheckEnabled = true
	cfg.AutoCheckDelay = 10
	return cfg
}

func newManager(t *testing.T, cfg *domain.Config) (*autocheck.Manager, *fakeChecker, *config.Memory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()

	store := config.NewMemory(cfg)
	checker := newFakeChecker()
	m := autocheck.New(checker, store, log)
	t.Cleanup(m.Stop)
	return m, checker, store
}

func TestManager_Disabled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, domain.DefaultConfig())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Empty(t, checker.Checks())
	})
}

func TestManager_ChecksAfterDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")

		time.Sleep(9 * time.Second)
		synctest.Wait()
		assert.Empty(t, checker.Checks())

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []check{{url: "https://example.com/a", at: 10 * time.Second}}, checker.Checks())
	})
}

func TestManager_NavigationRestartsTimer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(5 * time.Second)
		m.Navigate("tab-1", "https://example.com/b")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Equal(t, []check{{url: "https://example.com/b", at: 15 * time.Second}}, checker.Checks())
	})
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(2 * time.Second)
		m.Navigate("tab-2", "https://example.com/b")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Equal(t, []check{
			{url: "https://example.com/a", at: 10 * time.Second},
			{url: "https://example.com/b", at: 12 * time.Second},
		}, checker.Checks())
	})
}

func TestManager_ObservedState(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.Status
		checked bool
	}{
		{name: "green not enabled", status: domain.Status{State: domain.StateGreen}, checked: false},
		{name: "red enabled", status: domain.Status{State: domain.StateRed}, checked: true},
		{name: "orange enabled", status: domain.Status{State: domain.StateOrange}, checked: true},
		{name: "excluded domain", status: domain.Status{State: domain.StateGray, DomainExcluded: true}, checked: false},
		{name: "other url ignored", status: domain.Status{URL: "https://example.com/other", State: domain.StateGreen}, checked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				m, checker, _ := newManager(t, enabled())

				m.Navigate("tab-1", "https://example.com/a")
				status := tt.status
				if status.URL == "" {
					status.URL = "https://example.com/a"
				}
				m.Observe("tab-1", status)

				time.Sleep(time.Minute)
				synctest.Wait()
				assert.Equal(t, tt.checked, len(checker.Checks()) == 1)
			})
		})
	}
}

func TestManager_Forget(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(5 * time.Second)
		m.Forget("tab-1")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, checker.Checks())
	})
}

func TestManager_RearmAfterManualCheck(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(6 * time.Second)
		m.Rearm("tab-1", "https://example.com/a")
		m.Rearm("tab-1", "https://example.com/stale")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Equal(t, []check{{url: "https://example.com/a", at: 16 * time.Second}}, checker.Checks())
	})
}

func TestManager_RearmAllAppliesSettings(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, store := newManager(t, domain.DefaultConfig())

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(time.Second)

		require.NoError(t, store.Update(func(cfg *domain.Config) {
			cfg.AutoCheckEnabled = true
			cfg.AutoCheckDelay = 3
		}))
		m.RearmAll()

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Equal(t, []check{{url: "https://example.com/a", at: 4 * time.Second}}, checker.Checks())
	})
}

func TestManager_ResultFeedsNextCheck(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())
		checker.result = domain.StateGreen

		m.Navigate("tab-1", "https://example.com/a")
		time.Sleep(11 * time.Second)
		synctest.Wait()
		require.Len(t, checker.Checks(), 1)

		// The GREEN result is observed, so a re-arm does not check again.
		m.Rearm("tab-1", "https://example.com/a")
		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Len(t, checker.Checks(), 1)
	})
}

func TestManager_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, checker, _ := newManager(t, enabled())

		m.Navigate("tab-1", "https://example.com/a")
		m.Stop()
		m.Navigate("tab-2", "https://example.com/b")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, checker.Checks())
	})
}
