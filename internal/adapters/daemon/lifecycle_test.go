package daemon_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/daemon"
	"github.com/stretchr/testify/assert"
)

func stopped(lc *daemon.Lifecycle) bool {
	select {
	case <-lc.Done():
		return true
	default:
		return false
	}
}

func TestLifecycle_IdleStop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := daemon.NewLifecycle(time.Minute)

		select {
		case <-lc.Done():
		case <-time.After(2 * time.Minute):
			t.Fatal("expected idle stop")
		}
	})
}

func TestLifecycle_TouchRestartsIdleWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := daemon.NewLifecycle(time.Minute)

		time.Sleep(50 * time.Second)
		lc.Touch()
		time.Sleep(50 * time.Second)
		synctest.Wait()

		assert.False(t, stopped(lc))
		activity := lc.Activity()
		assert.Equal(t, 10*time.Second, activity.IdleRemaining)
		assert.Equal(t, int64(1), activity.Requests)
		lc.Stop()
	})
}

func TestLifecycle_StreamsSuspendIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := daemon.NewLifecycle(time.Minute)

		detach := lc.Attach()
		time.Sleep(time.Hour)
		synctest.Wait()
		assert.False(t, stopped(lc))
		assert.Equal(t, 1, lc.Activity().Streams)
		assert.Zero(t, lc.Activity().IdleRemaining)

		detach()
		detach()
		assert.Equal(t, 0, lc.Activity().Streams)
		assert.Equal(t, time.Minute, lc.Activity().IdleRemaining)

		time.Sleep(time.Minute + time.Second)
		synctest.Wait()
		assert.True(t, stopped(lc))
	})
}

func TestLifecycle_NoIdleTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := daemon.NewLifecycle(0)

		time.Sleep(24 * time.Hour)
		synctest.Wait()
		assert.False(t, stopped(lc), "service without idle timeout must not stop on its own")
		assert.Zero(t, lc.Activity().IdleRemaining)
		assert.Equal(t, 24*time.Hour, lc.Uptime())

		lc.Stop()
		lc.Stop()
		assert.True(t, stopped(lc))
	})
}

func TestLifecycle_LastRequest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := daemon.NewLifecycle(time.Hour)
		initial := lc.Activity().LastRequest

		time.Sleep(10 * time.Millisecond)
		lc.Touch()

		assert.True(t, lc.Activity().LastRequest.After(initial))
		lc.Stop()
	})
}
