package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/battleship-backend/internal/ledger"
)

// DefaultPollInterval is used when the caller does not specify one.
const DefaultPollInterval = 3 * time.Second

// SnapshotHandler receives each successfully decoded snapshot.
type SnapshotHandler func(ctx context.Context, snapshot *ledger.Snapshot)

// Poller periodically fetches the authoritative state record for enabled
// sessions. It knows nothing about game rules; decoded snapshots go to the
// handler, malformed or failed reads are logged and the cycle is skipped.
type Poller struct {
	logger *slog.Logger
	reader ledger.Reader

	mu      sync.Mutex
	cancels map[uint64]context.CancelFunc
}

func NewPoller(logger *slog.Logger, reader ledger.Reader) *Poller {
	return &Poller{
		logger:  logger.With("component", "poller"),
		reader:  reader,
		cancels: make(map[uint64]context.CancelFunc),
	}
}

// Enable starts polling a session. Enabling an already-polled session
// restarts it with the new interval.
func (that *Poller) Enable(ctx context.Context, sessionID uint64, interval time.Duration, handle SnapshotHandler) {
	if that.reader == nil {
		that.logger.Warn("no ledger reader configured, polling disabled", "sessionID", sessionID)
		return
	}

	if interval <= 0 {
		interval = DefaultPollInterval
	}

	that.mu.Lock()
	if cancel, ok := that.cancels[sessionID]; ok {
		cancel()
	}

	pollCtx, cancel := context.WithCancel(ctx)
	that.cancels[sessionID] = cancel
	that.mu.Unlock()

	go that.run(pollCtx, sessionID, interval, handle)
}

// Disable stops polling a session and releases its timer.
func (that *Poller) Disable(sessionID uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if cancel, ok := that.cancels[sessionID]; ok {
		cancel()
		delete(that.cancels, sessionID)
	}
}

// Shutdown stops all polling.
func (that *Poller) Shutdown() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for sessionID, cancel := range that.cancels {
		cancel()
		delete(that.cancels, sessionID)
	}
}

func (that *Poller) run(ctx context.Context, sessionID uint64, interval time.Duration, handle SnapshotHandler) {
	log := that.logger.With("sessionID", sessionID)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.poll(ctx, log, sessionID, handle)
		}
	}
}

func (that *Poller) poll(ctx context.Context, log *slog.Logger, sessionID uint64, handle SnapshotHandler) {
	data, err := that.reader.FetchSnapshot(ctx, sessionID)
	if err != nil {
		log.Debug("snapshot fetch failed, will retry next cycle", "error", err)
		return
	}

	snapshot, err := ledger.DecodeSnapshot(data)
	if err != nil {
		log.Error("discarding malformed snapshot", "error", err)
		return
	}

	handle(ctx, snapshot)
}
