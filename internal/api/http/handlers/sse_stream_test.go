package handlers

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/rescue-service/internal/domain"
)

type droppedConn struct{}

func (droppedConn) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestPumpSnapshotsWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	snapshots := make(chan []domain.HelpRequest, 1)
	snapshots <- []domain.HelpRequest{{ID: "r1", Status: domain.RequestStatusPending}}
	close(snapshots)

	pumpSnapshots(w, snapshots, nil)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "event: pending\ndata: "), out)
	assert.Contains(t, out, `"id":"r1"`)
	assert.True(t, strings.HasSuffix(out, "\n\n"), out)
}

func TestPumpSnapshotsStopsWhenClientGone(t *testing.T) {
	w := bufio.NewWriterSize(droppedConn{}, 16)

	snapshots := make(chan []domain.HelpRequest)
	heartbeat := make(chan time.Time, 1)
	heartbeat <- time.Now()

	done := make(chan struct{})
	go func() {
		// A quiet board: the heartbeat write is what surfaces the dead
		// connection and ends the pump.
		pumpSnapshots(w, snapshots, heartbeat)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump kept running after the connection dropped")
	}
	require.Empty(t, heartbeat)
}
