package statusboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/kv"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/statusboard"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func TestBoard_CurrentBeforePublish(t *testing.T) {
	board := statusboard.New(kv.NewMemoryStore(), quietLogger(t))

	assert.Equal(t, domain.UnavailableStatus(), board.Current(context.Background()))
}

func TestBoard_PublishPersists(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	status := domain.Status{
		State:        domain.StateOrange,
		URL:          "https://example.com/a",
		MatchingURLs: []string{"https://example.com"},
	}.Stamp(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	statusboard.New(store, quietLogger(t)).Publish(ctx, status)

	// A second board over the same store sees the status.
	got := statusboard.New(store, quietLogger(t)).Current(ctx)
	assert.Equal(t, domain.StateOrange, got.State)
	assert.Equal(t, "Found 1 similar URLs.", got.Text)
	assert.Equal(t, status.MatchingURLs, got.MatchingURLs)
	assert.True(t, status.Timestamp.Equal(got.Timestamp))
}

func TestBoard_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	board := statusboard.New(kv.NewMemoryStore(), quietLogger(t))

	ch := board.Subscribe(ctx)
	board.Publish(context.Background(), domain.Status{State: domain.StateGreen, URL: "https://example.com"})

	select {
	case got := <-ch:
		assert.Equal(t, domain.StateGreen, got.State)
	case <-time.After(time.Second):
		t.Fatal("expected a status")
	}

	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
	assert.False(t, open)
}

func TestBoard_StoreFailures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	log := mocks.NewMockLogger(ctrl)
	board := statusboard.New(store, log)

	store.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	log.EXPECT().Error(gomock.Any(), "state", domain.StateRed, "url", "https://example.com").Times(1)
	board.Publish(ctx, domain.Status{State: domain.StateRed, URL: "https://example.com"})

	store.EXPECT().Get(gomock.Any(), []string{domain.CurrentStatusKey}).Return(nil, errors.New("disk gone"))
	log.EXPECT().Error(gomock.Any()).Times(1)
	assert.Equal(t, domain.UnavailableStatus(), board.Current(ctx))

	store.EXPECT().Get(gomock.Any(), []string{domain.CurrentStatusKey}).
		Return(map[string][]byte{domain.CurrentStatusKey: []byte("{")}, nil)
	log.EXPECT().Error(gomock.Any()).Times(1)
	require.Equal(t, domain.UnavailableStatus(), board.Current(ctx))
}
