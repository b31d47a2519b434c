package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/clock"
	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

const (
	DefaultReapInterval  = time.Minute
	DefaultGracePeriod   = 5 * time.Minute
	defaultDeleteTimeout = 10 * time.Second
)

// WatchCounter reports how many observers declared interest in a room.
type WatchCounter interface {
	WatchCount(room domain.RoomID) int
	WatchCounts() map[domain.RoomID]int
}

type pendingDeletion struct {
	deadline time.Time
	timer    *clock.Timer
	// failed is set when the delete call errored; the next sweep retries.
	failed bool
	// running guards against a sweep retry overlapping an in-flight delete.
	running bool
}

// Reaper zeroes rooms whose participants vanished without a leave and
// deletes rooms that stay empty and unwatched for the grace period.
type Reaper struct {
	store    *OccupancyStore
	watchers WatchCounter
	table    core.RoomTable
	clock    clock.Clock
	interval time.Duration
	grace    time.Duration

	mu      sync.Mutex
	pending map[domain.RoomID]*pendingDeletion
	ctx     context.Context
}

type ReaperOption func(*Reaper)

func WithClock(c clock.Clock) ReaperOption { return func(r *Reaper) { r.clock = c } }

func WithInterval(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithGracePeriod(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.grace = d
		}
	}
}

func NewReaper(store *OccupancyStore, watchers WatchCounter, table core.RoomTable, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		store:    store,
		watchers: watchers,
		table:    table,
		clock:    clock.Real(),
		interval: DefaultReapInterval,
		grace:    DefaultGracePeriod,
		pending:  make(map[domain.RoomID]*pendingDeletion),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sweeps on every tick until ctx is done, then stops all pending timers.
func (r *Reaper) Run(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.reaper").Dur("interval", r.interval).Dur("grace", r.grace).Msg("reaper started")

	for {
		select {
		case <-ctx.Done():
			r.stopAll()
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs one pass over every tracked room.
func (r *Reaper) Sweep() {
	snap := r.store.Snapshot()
	watching := r.watchers.WatchCounts()

	for id, n := range snap {
		switch {
		case watching[id] > 0:
			r.Cancel(id)
		case n != 0:
			if r.watchers.WatchCount(id) > 0 {
				r.Cancel(id)
				continue
			}
			r.store.Reconcile(id)
		default:
			r.schedule(id)
		}
	}

	r.mu.Lock()
	for id, p := range r.pending {
		if _, ok := snap[id]; !ok && !p.failed && !p.running {
			p.timer.Stop()
			delete(r.pending, id)
		}
	}
	r.mu.Unlock()
}

// Cancel drops the pending deletion for the room, if any. It returns false
// when the room record is already being deleted; callers must not count a
// participant into it.
func (r *Reaper) Cancel(id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return true
	}
	if p.running {
		return false
	}
	p.timer.Stop()
	delete(r.pending, id)
	log.Info().Str("module", "app.reaper").Str("room_id", string(id)).Msg("pending deletion canceled")
	return true
}

// Pending reports the deadline of the room's pending deletion.
func (r *Reaper) Pending(id domain.RoomID) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return time.Time{}, false
	}
	return p.deadline, true
}

func (r *Reaper) schedule(id domain.RoomID) {
	r.mu.Lock()
	p, ok := r.pending[id]
	if ok {
		retry := p.failed && !p.running
		r.mu.Unlock()
		if retry {
			r.expire(id, p.timer)
		}
		return
	}
	p = &pendingDeletion{deadline: r.clock.Now().Add(r.grace)}
	r.pending[id] = p
	var timer *clock.Timer
	timer = r.clock.AfterFunc(r.grace, func() { r.expire(id, timer) })
	p.timer = timer
	r.mu.Unlock()
	log.Info().Str("module", "app.reaper").Str("room_id", string(id)).Time("deadline", p.deadline).Msg("room empty, deletion scheduled")
}

func (r *Reaper) expire(id domain.RoomID, timer *clock.Timer) {
	r.mu.Lock()
	p, ok := r.pending[id]
	if !ok || p.timer != timer || p.running {
		r.mu.Unlock()
		return
	}
	n, tracked := r.store.Count(id)
	if (tracked && n != 0) || r.watchers.WatchCount(id) > 0 {
		delete(r.pending, id)
		r.mu.Unlock()
		log.Info().Str("module", "app.reaper").Str("room_id", string(id)).Msg("room active again, deletion discarded")
		return
	}
	p.running = true
	ctx := r.ctx
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultDeleteTimeout)
	err := r.table.DeleteRoom(ctx, id)
	cancel()
	if errors.Is(err, domain.ErrRoomNotFound) {
		err = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p.running = false
	if err != nil {
		// Still tracked at zero; the next sweep retries.
		log.Error().Err(err).Str("module", "app.reaper").Str("room_id", string(id)).Msg("delete failed, will retry")
		p.failed = true
		return
	}
	if cur, ok := r.pending[id]; ok && cur == p {
		delete(r.pending, id)
	}
	if !r.store.Retire(id) {
		log.Warn().Str("module", "app.reaper").Str("room_id", string(id)).Msg("room record deleted but count is non-zero")
		return
	}
	log.Info().Str("module", "app.reaper").Str("room_id", string(id)).Msg("room deleted")
}

func (r *Reaper) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, id)
	}
}
