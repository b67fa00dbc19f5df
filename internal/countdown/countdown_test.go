package countdown

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastManager() *Manager {
	return NewManager(WithTimings(3, 5*time.Millisecond, time.Millisecond))
}

func TestCountdownFiresExactlyOnce(t *testing.T) {
	m := fastManager()

	var fired int32
	id, err := m.Start("requester-1", func() { atomic.AddInt32(&fired, 1) })
	require.NoError(t, err)

	state, remaining, ok := m.Status(id)
	require.True(t, ok)
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 3, remaining)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, time.Millisecond)

	// never fires again
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))

	// fired countdowns are evicted
	_, _, ok = m.Status(id)
	assert.False(t, ok)
}

func TestCancelSuppressesFire(t *testing.T) {
	m := NewManager(WithTimings(3, 20*time.Millisecond, time.Millisecond))

	var fired int32
	id, err := m.Start("requester-1", func() { atomic.AddInt32(&fired, 1) })
	require.NoError(t, err)

	// cancel while the count is still running
	assert.Eventually(t, func() bool {
		_, remaining, ok := m.Status(id)
		return ok && remaining == 2
	}, time.Second, time.Millisecond)
	require.NoError(t, m.Cancel(id))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	// cancelled countdowns are evicted and cannot be cancelled twice
	_, _, ok := m.Status(id)
	assert.False(t, ok)
	assert.ErrorIs(t, m.Cancel(id), ErrNotCounting)
}

func TestSingleCountdownPerOwner(t *testing.T) {
	m := NewManager(WithTimings(3, 50*time.Millisecond, time.Millisecond))

	id, err := m.Start("requester-1", func() {})
	require.NoError(t, err)

	_, err = m.Start("requester-1", func() {})
	assert.ErrorIs(t, err, ErrAlreadyCounting)

	// other owners are unaffected
	_, err = m.Start("requester-2", func() {})
	assert.NoError(t, err)

	// cancelling frees the slot
	require.NoError(t, m.Cancel(id))
	_, err = m.Start("requester-1", func() {})
	assert.NoError(t, err)
}

func TestTerminalCountdownsLeaveNoEntries(t *testing.T) {
	m := fastManager()

	fired := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		owner := "requester-" + string(rune('a'+i))
		if i%2 == 0 {
			_, err := m.Start(owner, func() { fired <- struct{}{} })
			require.NoError(t, err)
			continue
		}
		id, err := m.Start(owner, func() { fired <- struct{}{} })
		require.NoError(t, err)
		require.NoError(t, m.Cancel(id))
	}

	for i := 0; i < 4; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("countdown never fired")
		}
	}

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.entries) == 0 && len(m.byOwner) == 0
	}, time.Second, time.Millisecond)
}

func TestOwnerReportsArmingRequester(t *testing.T) {
	m := NewManager(WithTimings(3, 50*time.Millisecond, time.Millisecond))

	id, err := m.Start("requester-1", func() {})
	require.NoError(t, err)

	owner, ok := m.Owner(id)
	require.True(t, ok)
	assert.Equal(t, "requester-1", owner)

	require.NoError(t, m.Cancel(id))
	_, ok = m.Owner(id)
	assert.False(t, ok)
}

func TestCancelAfterFireFails(t *testing.T) {
	m := fastManager()

	done := make(chan struct{})
	id, err := m.Start("requester-1", func() { close(done) })
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never fired")
	}

	assert.ErrorIs(t, m.Cancel(id), ErrNotCounting)
}
