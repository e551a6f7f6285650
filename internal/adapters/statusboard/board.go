// Package statusboard keeps the last published status in the key/value store and fans every
// published status out to subscribers.
package statusboard

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.StatusSink   = (*Board)(nil)
	_ ports.StatusReader = (*Board)(nil)
)

// subscriberBuffer is the number of statuses a slow subscriber may lag behind before it misses some.
const subscriberBuffer = 16

// Board is the UI collaborator channel: a persisted "current status" plus live subscribers.
type Board struct {
	store  ports.KVStore
	logger ports.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.Status
}

// New creates a Board persisting into store.
func New(store ports.KVStore, logger ports.Logger) *Board {
	return &Board{
		store:  store,
		logger: logger,
		subs:   make(map[int]chan domain.Status),
	}
}

// Publish stores status as the current status and hands it to every subscriber.
// Persistence failures are logged; subscribers still receive the status.
func (b *Board) Publish(ctx context.Context, status domain.Status) {
	if err := b.persist(ctx, status); err != nil {
		b.logger.Error(err, "state", status.State, "url", status.URL)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- status:
		default:
			b.logger.Warn("status subscriber is lagging, dropping status", "subscriber", id)
		}
	}
}

// Current returns the last published status, or domain.UnavailableStatus when none was stored.
func (b *Board) Current(ctx context.Context) domain.Status {
	values, err := b.store.Get(ctx, []string{domain.CurrentStatusKey})
	if err != nil {
		b.logger.Error(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()))
		return domain.UnavailableStatus()
	}
	data, ok := values[domain.CurrentStatusKey]
	if !ok {
		return domain.UnavailableStatus()
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		b.logger.Error(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()))
		return domain.UnavailableStatus()
	}
	return status
}

// Subscribe returns a channel receiving every status published after the call.
// The channel is closed once ctx is done.
func (b *Board) Subscribe(ctx context.Context) <-chan domain.Status {
	ch := make(chan domain.Status, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		close(ch)
	})
	return ch
}

func (b *Board) persist(ctx context.Context, status domain.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	if err := b.store.Set(ctx, map[string][]byte{domain.CurrentStatusKey: data}); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}
