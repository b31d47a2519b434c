package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

// OccupancyStore is the authoritative in-memory count of participants per room.
// Every mutation broadcasts the full snapshot and queues a mirror write while
// the store lock is held, so observers see snapshots in mutation order.
type OccupancyStore struct {
	mu       sync.Mutex
	counts   map[domain.RoomID]int
	notifier core.Notifier
	mirror   core.Mirror
}

func NewOccupancyStore(notifier core.Notifier, mirror core.Mirror) *OccupancyStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if mirror == nil {
		mirror = NopMirror{}
	}
	return &OccupancyStore{
		counts:   make(map[domain.RoomID]int),
		notifier: notifier,
		mirror:   mirror,
	}
}

func (s *OccupancyStore) Increment(id domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
	n := s.counts[id]
	s.changedLocked(id, true)
	log.Debug().Str("module", "app.occupancy").Str("room_id", string(id)).Int("count", n).Msg("increment")
	return n
}

// IncrementIfBelow increments only while the count is under max.
func (s *OccupancyStore) IncrementIfBelow(id domain.RoomID, max int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.counts[id]
	if n >= max {
		return n, false
	}
	s.counts[id] = n + 1
	s.changedLocked(id, true)
	log.Debug().Str("module", "app.occupancy").Str("room_id", string(id)).Int("count", n+1).Int("max", max).Msg("increment")
	return n + 1, true
}

// Decrement floors at zero. An untracked room stays untracked.
func (s *OccupancyStore) Decrement(id domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counts[id]
	if n > 0 {
		n--
		s.counts[id] = n
	}
	s.changedLocked(id, ok)
	log.Debug().Str("module", "app.occupancy").Str("room_id", string(id)).Int("count", n).Msg("decrement")
	return n
}

// Reconcile forces the room to zero and returns the value it replaced.
func (s *OccupancyStore) Reconcile(id domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.counts[id]
	s.counts[id] = 0
	s.changedLocked(id, true)
	log.Info().Str("module", "app.occupancy").Str("room_id", string(id)).Int("was", prev).Msg("reconciled to zero")
	return prev
}

// Track registers a room without broadcasting. An existing entry is kept.
func (s *OccupancyStore) Track(id domain.RoomID, count int) {
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counts[id]; !ok {
		s.counts[id] = count
	}
}

// Retire removes the entry if the room is still empty.
func (s *OccupancyStore) Retire(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counts[id]
	if ok && n != 0 {
		return false
	}
	delete(s.counts, id)
	s.notifier.Broadcast(s.snapshotLocked())
	return true
}

// Remove drops the entry whatever its count. Used when a room is evicted.
func (s *OccupancyStore) Remove(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counts[id]; !ok {
		return false
	}
	delete(s.counts, id)
	s.notifier.Broadcast(s.snapshotLocked())
	log.Info().Str("module", "app.occupancy").Str("room_id", string(id)).Msg("removed")
	return true
}

func (s *OccupancyStore) Count(id domain.RoomID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counts[id]
	return n, ok
}

func (s *OccupancyStore) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Attach runs fn with the current snapshot while holding the store lock.
// fn must not call back into the store.
func (s *OccupancyStore) Attach(fn func(core.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snapshotLocked())
}

func (s *OccupancyStore) changedLocked(id domain.RoomID, mirror bool) {
	s.notifier.Broadcast(s.snapshotLocked())
	if mirror {
		s.mirror.Enqueue(id, s.counts[id])
	}
}

func (s *OccupancyStore) snapshotLocked() core.Snapshot {
	out := make(core.Snapshot, len(s.counts))
	for id, n := range s.counts {
		out[id] = n
	}
	return out
}
