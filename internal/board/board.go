// Package board maintains the live view of pending help requests. Lifecycle
// events trigger a reload, and subscribers always receive the whole pending
// set as a replacement snapshot, never incremental add/remove deltas, so a
// consumer can never observe a torn view.
package board

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/events"
	"github.com/spec-kit/rescue-service/internal/repository"
)

// Board tracks the pending set and fans it out.
type Board struct {
	requests   repository.RequestRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu          sync.RWMutex
	current     []domain.HelpRequest
	subscribers map[string]chan []domain.HelpRequest
}

// New constructs a Board. Call Start to wire it to lifecycle events.
func New(requests repository.RequestRepository, dispatcher events.Dispatcher, logger *zap.Logger) *Board {
	return &Board{
		requests:    requests,
		dispatcher:  dispatcher,
		logger:      logger,
		subscribers: make(map[string]chan []domain.HelpRequest),
	}
}

// Start loads the initial snapshot and subscribes to every lifecycle event
// that can change the pending set.
func (b *Board) Start(ctx context.Context) {
	for _, eventType := range []events.EventType{
		events.EventRequestCreated,
		events.EventMissionAccepted,
		events.EventMissionCancelled,
		events.EventMissionCompleted,
	} {
		b.dispatcher.Subscribe(eventType, func(ctx context.Context, _ events.Event) error {
			b.Refresh(ctx)
			return nil
		})
	}
	b.Refresh(ctx)
}

// Refresh reloads the pending set and broadcasts it to all subscribers.
func (b *Board) Refresh(ctx context.Context) {
	pending, err := b.requests.ListByStatus(ctx, domain.RequestStatusPending)
	if err != nil {
		b.logger.Warn("board refresh failed", zap.Error(err))
		return
	}

	// Delivery happens under the lock: both selects are non-blocking, and a
	// concurrent cancel() closes its channel under the same lock, so a send
	// can never land on a closed channel.
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = pending
	for _, ch := range b.subscribers {
		// Slow consumers only ever see the latest snapshot: stale ones
		// are dropped before the replacement goes in.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshotCopy(pending):
		default:
		}
	}
}

// Snapshot returns the current pending set.
func (b *Board) Snapshot() []domain.HelpRequest {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return snapshotCopy(b.current)
}

// Subscribe registers a snapshot consumer. The returned cancel func must be
// called on teardown; the channel is closed by it.
func (b *Board) Subscribe() (<-chan []domain.HelpRequest, func()) {
	id := uuid.NewString()
	ch := make(chan []domain.HelpRequest, 1)

	b.mu.Lock()
	b.subscribers[id] = ch
	ch <- snapshotCopy(b.current)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func snapshotCopy(requests []domain.HelpRequest) []domain.HelpRequest {
	out := make([]domain.HelpRequest, len(requests))
	copy(out, requests)
	return out
}
