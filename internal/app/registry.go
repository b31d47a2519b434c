package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

type observerEntry struct {
	Room        domain.RoomID
	ClientToken string
	Signal      core.SignalConnection
	Cancel      context.CancelFunc
}

// Registry tracks live-update connections and the room each one watches.
type Registry struct {
	mu        sync.RWMutex
	observers map[core.SessionID]*observerEntry
}

func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[core.SessionID]*observerEntry),
	}
}

func (r *Registry) Bind(sid core.SessionID, clientToken string, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[sid] = &observerEntry{ClientToken: clientToken, Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", clientToken).Msg("bound observer")
}

// Unbind returns the room the observer was watching, if any.
func (r *Registry) Unbind(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.observers[sid]
	if !ok {
		return "", false
	}
	delete(r.observers, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind observer")
	return e.Room, e.Room != ""
}

func (r *Registry) Watch(sid core.SessionID, room domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.observers[sid]
	if !ok {
		return domain.ErrObserverNotBound
	}
	e.Room = room
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room_id", string(room)).Msg("watching room")
	return nil
}

// Unwatch clears the observed room and returns the previous one.
func (r *Registry) Unwatch(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.observers[sid]
	if !ok || e.Room == "" {
		return "", false
	}
	prev := e.Room
	e.Room = ""
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room_id", string(prev)).Msg("stopped watching")
	return prev, true
}

func (r *Registry) Observers() []core.ObserverSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ObserverSnap, 0, len(r.observers))
	for sid, e := range r.observers {
		out = append(out, core.ObserverSnap{SID: sid, Room: e.Room, Signal: e.Signal})
	}
	return out
}

func (r *Registry) WatchCount(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.observers {
		if e.Room == room {
			n++
		}
	}
	return n
}

func (r *Registry) WatchCounts() map[domain.RoomID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.RoomID]int)
	for _, e := range r.observers {
		if e.Room != "" {
			out[e.Room]++
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Cancel stops the observer's connection context. The adapter unbinds it
// when its pumps exit.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.observers[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled observer")
	return true
}
