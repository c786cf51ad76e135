package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
)

func newTestPoller(t *testing.T, reader ledger.Reader) *Poller {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	poller := NewPoller(logger, reader)
	t.Cleanup(poller.Shutdown)

	return poller
}

func encodedSnapshot(sessionID uint64, status uint8) []byte {
	return ledger.EncodeSnapshot(&ledger.Snapshot{
		SessionID: sessionID,
		Status:    status,
		Turn:      ledger.TurnPlayerA,
	})
}

func TestPoller_Enable(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers each decoded snapshot to the handler", func(t *testing.T) {
		// Given: a reader serving a valid record
		reader := &fakeReader{}
		reader.set(encodedSnapshot(42, ledger.StatusActive), nil)
		poller := newTestPoller(t, reader)

		received := make(chan *ledger.Snapshot, 16)

		// When: polling is enabled
		poller.Enable(ctx, 42, 10*time.Millisecond, func(_ context.Context, snapshot *ledger.Snapshot) {
			received <- snapshot
		})

		// Then: the handler sees the decoded snapshot
		select {
		case snapshot := <-received:
			assert.Equal(t, uint64(42), snapshot.SessionID)
			assert.Equal(t, ledger.StatusActive, snapshot.Status)
		case <-time.After(2 * time.Second):
			t.Fatal("handler never received a snapshot")
		}
	})

	t.Run("A fetch failure skips the cycle and recovers on the next one", func(t *testing.T) {
		// Given: a reader that starts out failing
		reader := &fakeReader{}
		reader.set(nil, context.DeadlineExceeded)
		poller := newTestPoller(t, reader)

		received := make(chan *ledger.Snapshot, 16)
		poller.Enable(ctx, 7, 10*time.Millisecond, func(_ context.Context, snapshot *ledger.Snapshot) {
			received <- snapshot
		})

		// When: a few failing cycles pass, then the reader heals
		time.Sleep(50 * time.Millisecond)
		require.Empty(t, received)
		reader.set(encodedSnapshot(7, ledger.StatusWaiting), nil)

		// Then: the next cycle delivers
		select {
		case snapshot := <-received:
			assert.Equal(t, uint64(7), snapshot.SessionID)
		case <-time.After(2 * time.Second):
			t.Fatal("handler never received a snapshot after recovery")
		}
	})

	t.Run("A malformed record is discarded without reaching the handler", func(t *testing.T) {
		// Given: a reader serving garbage
		reader := &fakeReader{}
		reader.set([]byte{1, 2, 3}, nil)
		poller := newTestPoller(t, reader)

		received := make(chan *ledger.Snapshot, 16)
		poller.Enable(ctx, 9, 10*time.Millisecond, func(_ context.Context, snapshot *ledger.Snapshot) {
			received <- snapshot
		})

		// Then: nothing ever comes through
		select {
		case <-received:
			t.Fatal("handler received a snapshot decoded from garbage")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Re-enabling restarts the session with the new interval", func(t *testing.T) {
		// Given: a polled session
		reader := &fakeReader{}
		reader.set(encodedSnapshot(3, ledger.StatusActive), nil)
		poller := newTestPoller(t, reader)

		var mu sync.Mutex
		count := 0
		handle := func(_ context.Context, _ *ledger.Snapshot) {
			mu.Lock()
			count++
			mu.Unlock()
		}

		poller.Enable(ctx, 3, time.Hour, handle)

		// When: it is re-enabled with a short interval
		poller.Enable(ctx, 3, 10*time.Millisecond, handle)

		// Then: cycles start firing at the new cadence
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return count >= 2
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("A nil reader disables polling entirely", func(t *testing.T) {
		poller := newTestPoller(t, nil)

		fired := make(chan struct{}, 1)
		poller.Enable(ctx, 1, time.Millisecond, func(_ context.Context, _ *ledger.Snapshot) {
			fired <- struct{}{}
		})

		select {
		case <-fired:
			t.Fatal("handler fired without a reader")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestPoller_Disable(t *testing.T) {
	ctx := context.Background()

	t.Run("Disable stops further cycles", func(t *testing.T) {
		// Given: an actively polled session
		reader := &fakeReader{}
		reader.set(encodedSnapshot(5, ledger.StatusActive), nil)
		poller := newTestPoller(t, reader)

		var mu sync.Mutex
		count := 0
		poller.Enable(ctx, 5, 10*time.Millisecond, func(_ context.Context, _ *ledger.Snapshot) {
			mu.Lock()
			count++
			mu.Unlock()
		})

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return count >= 1
		}, 2*time.Second, 10*time.Millisecond)

		// When: the session is disabled
		poller.Disable(5)

		mu.Lock()
		after := count
		mu.Unlock()

		// Then: the count settles
		time.Sleep(100 * time.Millisecond)

		mu.Lock()
		final := count
		mu.Unlock()
		assert.LessOrEqual(t, final, after+1)
	})

	t.Run("Disabling an unknown session is a no-op", func(t *testing.T) {
		poller := newTestPoller(t, &fakeReader{})
		poller.Disable(12345)
	})
}
