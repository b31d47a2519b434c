package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

// AsyncMirror writes occupancy to the room table off the request path.
// Pending writes coalesce per room, so only the latest count is written
// and an older value never lands after a newer one. Failed writes are
// logged and dropped.
type AsyncMirror struct {
	table   core.RoomTable
	timeout time.Duration

	mu      sync.Mutex
	pending map[domain.RoomID]int
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   conc.WaitGroup
}

func NewAsyncMirror(table core.RoomTable, timeout time.Duration) *AsyncMirror {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncMirror{
		table:   table,
		timeout: timeout,
		pending: make(map[domain.RoomID]int),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the single writer. Close stops it.
func (m *AsyncMirror) Start() {
	m.wg.Go(m.loop)
}

func (m *AsyncMirror) Enqueue(id domain.RoomID, occupancy int) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending[id] = occupancy
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Close flushes what is queued and waits for the writer to exit.
func (m *AsyncMirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()
	close(m.done)
	m.wg.Wait()
}

func (m *AsyncMirror) loop() {
	for {
		select {
		case <-m.done:
			m.flush()
			return
		case <-m.wake:
			m.flush()
		}
	}
}

func (m *AsyncMirror) flush() {
	m.mu.Lock()
	batch := m.pending
	m.pending = make(map[domain.RoomID]int, len(batch))
	m.mu.Unlock()

	for id, n := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := m.table.UpdateOccupancy(ctx, id, n)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrRoomNotFound):
			log.Debug().Str("module", "app.mirror").Str("room_id", string(id)).Msg("mirror skipped, room gone")
		default:
			log.Warn().Err(err).Str("module", "app.mirror").Str("room_id", string(id)).Int("count", n).Msg("mirror write failed")
		}
	}
}

// NopMirror drops every write.
type NopMirror struct{}

func (NopMirror) Enqueue(domain.RoomID, int) {}
