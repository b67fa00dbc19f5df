// Package countdown implements the cancellable confirm delay that guards
// emergency request creation against accidental triggers. Each armed
// countdown is a single debounced timer sequence: ticks only update the
// observable remaining count, and the fire callback runs exactly once, a
// short beat after the count reaches zero. Cancellation is only possible
// while counting; once the fire is dispatched it cannot be recalled.
package countdown

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State describes where an armed countdown is in its lifecycle.
type State string

const (
	StateCounting State = "COUNTING"
	StateFired    State = "FIRED"
	StateCanceled State = "CANCELED"
)

// Defaults mirror the interaction contract: three one-second ticks, then a
// 100ms beat before the callback fires.
const (
	DefaultTicks     = 3
	DefaultTick      = time.Second
	DefaultFireDelay = 100 * time.Millisecond
)

// ErrAlreadyCounting is returned when an owner arms a second countdown while
// one is still in flight.
var ErrAlreadyCounting = errors.New("countdown already in progress for owner")

// ErrNotCounting is returned when cancelling a countdown that is not active.
var ErrNotCounting = errors.New("no active countdown")

type entry struct {
	id        string
	ownerID   string
	remaining int
	state     State
	cancelCh  chan struct{}
}

// Manager owns all in-flight countdowns, keyed by id, with at most one
// active countdown per owner.
type Manager struct {
	mu        sync.Mutex
	entries   map[string]*entry
	byOwner   map[string]string
	ticks     int
	tick      time.Duration
	fireDelay time.Duration
}

// Option customizes a Manager, mainly to shrink timings in tests.
type Option func(*Manager)

// WithTimings overrides tick count, tick interval and the pre-fire delay.
func WithTimings(ticks int, tick, fireDelay time.Duration) Option {
	return func(m *Manager) {
		m.ticks = ticks
		m.tick = tick
		m.fireDelay = fireDelay
	}
}

// NewManager constructs a Manager with the default 3-second sequence.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entries:   make(map[string]*entry),
		byOwner:   make(map[string]string),
		ticks:     DefaultTicks,
		tick:      DefaultTick,
		fireDelay: DefaultFireDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start arms a countdown for the owner and returns its id. The fire callback
// runs exactly once when the sequence completes uncancelled.
func (m *Manager) Start(ownerID string, fire func()) (string, error) {
	m.mu.Lock()
	if _, busy := m.byOwner[ownerID]; busy {
		m.mu.Unlock()
		return "", ErrAlreadyCounting
	}
	e := &entry{
		id:        uuid.NewString(),
		ownerID:   ownerID,
		remaining: m.ticks,
		state:     StateCounting,
		cancelCh:  make(chan struct{}),
	}
	m.entries[e.id] = e
	m.byOwner[ownerID] = e.id
	m.mu.Unlock()

	go m.run(e, fire)
	return e.id, nil
}

// Cancel stops an in-flight countdown, suppressing the eventual fire. It is
// an error once the countdown fired or was already cancelled.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.state != StateCounting {
		return ErrNotCounting
	}
	e.state = StateCanceled
	close(e.cancelCh)
	delete(m.byOwner, e.ownerID)
	delete(m.entries, e.id)
	return nil
}

// Owner reports which requester armed the countdown.
func (m *Manager) Owner(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return "", false
	}
	return e.ownerID, true
}

// Status reports the state and remaining ticks of a countdown.
func (m *Manager) Status(id string) (State, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return "", 0, false
	}
	return e.state, e.remaining, true
}

func (m *Manager) run(e *entry, fire func()) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.cancelCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			if e.state != StateCounting {
				m.mu.Unlock()
				return
			}
			e.remaining--
			done := e.remaining <= 0
			if done {
				// Reaching zero commits the fire; cancellation is no
				// longer possible during the final beat.
				e.state = StateFired
				delete(m.byOwner, e.ownerID)
			}
			m.mu.Unlock()
			if done {
				time.Sleep(m.fireDelay)
				fire()
				m.mu.Lock()
				delete(m.entries, e.id)
				m.mu.Unlock()
				return
			}
		}
	}
}
