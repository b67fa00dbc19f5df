package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/events"
	"github.com/spec-kit/rescue-service/internal/repository"
)

type stubRequestRepo struct {
	repository.RequestRepository
	pending []domain.HelpRequest
}

func (s *stubRequestRepo) ListByStatus(_ context.Context, status domain.RequestStatus) ([]domain.HelpRequest, error) {
	if status != domain.RequestStatusPending {
		return nil, nil
	}
	out := make([]domain.HelpRequest, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func pendingRequest(id string) domain.HelpRequest {
	return domain.HelpRequest{
		ID:            id,
		RequesterName: "Ana Martins",
		Status:        domain.RequestStatusPending,
		Location:      domain.Coordinates{Latitude: 38.72, Longitude: -9.13},
	}
}

func waitSnapshot(t *testing.T, ch <-chan []domain.HelpRequest) []domain.HelpRequest {
	t.Helper()
	select {
	case snapshot := <-ch:
		return snapshot
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

func TestBoardPublishesInitialSnapshot(t *testing.T) {
	repo := &stubRequestRepo{pending: []domain.HelpRequest{pendingRequest("r1")}}
	dispatcher := events.NewInMemoryDispatcher()
	b := New(repo, dispatcher, zap.NewNop())
	b.Start(context.Background())

	ch, cancel := b.Subscribe()
	defer cancel()

	snapshot := waitSnapshot(t, ch)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "r1", snapshot[0].ID)
}

func TestBoardRefreshesOnLifecycleEvents(t *testing.T) {
	repo := &stubRequestRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	b := New(repo, dispatcher, zap.NewNop())
	b.Start(context.Background())

	ch, cancel := b.Subscribe()
	defer cancel()
	assert.Empty(t, waitSnapshot(t, ch))

	repo.pending = []domain.HelpRequest{pendingRequest("r1"), pendingRequest("r2")}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventRequestCreated,
		RequestID: "r1",
	}))

	snapshot := waitSnapshot(t, ch)
	require.Len(t, snapshot, 2)

	// Acceptance empties the pool; the board follows.
	repo.pending = nil
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventMissionAccepted,
		RequestID: "r1",
	}))
	assert.Empty(t, waitSnapshot(t, ch))
	assert.Empty(t, b.Snapshot())
}

func TestBoardLatestSnapshotWins(t *testing.T) {
	repo := &stubRequestRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	b := New(repo, dispatcher, zap.NewNop())
	b.Start(context.Background())

	ch, cancel := b.Subscribe()
	defer cancel()
	waitSnapshot(t, ch)

	// A slow subscriber only ever sees the newest state.
	repo.pending = []domain.HelpRequest{pendingRequest("r1")}
	b.Refresh(context.Background())
	repo.pending = []domain.HelpRequest{pendingRequest("r1"), pendingRequest("r2")}
	b.Refresh(context.Background())

	snapshot := waitSnapshot(t, ch)
	require.Len(t, snapshot, 2)
}

func TestBoardRefreshRacesSubscriberCancel(t *testing.T) {
	repo := &stubRequestRepo{pending: []domain.HelpRequest{pendingRequest("r1")}}
	dispatcher := events.NewInMemoryDispatcher()
	b := New(repo, dispatcher, zap.NewNop())
	b.Start(context.Background())

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					b.Refresh(context.Background())
				}
			}
		}()
	}

	// Churn subscribers while broadcasts are in flight; a send after close
	// would panic the refresh goroutines.
	for i := 0; i < 500; i++ {
		ch, cancel := b.Subscribe()
		select {
		case <-ch:
		default:
		}
		cancel()
	}
	close(done)
	wg.Wait()
}

func TestBoardUnsubscribeStopsDelivery(t *testing.T) {
	repo := &stubRequestRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	b := New(repo, dispatcher, zap.NewNop())
	b.Start(context.Background())

	ch, cancel := b.Subscribe()
	waitSnapshot(t, ch)
	cancel()

	repo.pending = []domain.HelpRequest{pendingRequest("r1")}
	b.Refresh(context.Background())

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(200 * time.Millisecond):
	}
}
