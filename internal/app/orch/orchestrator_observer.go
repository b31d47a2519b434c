package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

// Attach registers a live-update connection and sends it the current
// snapshot. Binding happens under the occupancy lock, so the connection
// receives every later snapshot and none older than its first.
func (o *Orchestrator) Attach(sid core.SessionID, clientToken string, sig core.SignalConnection, cancel context.CancelFunc) error {
	var sendErr error
	o.Occupancy.Attach(func(snap core.Snapshot) {
		o.Registry.Bind(sid, clientToken, sig, cancel)
		frame, err := core.EncodeCounts(snap)
		if err != nil {
			sendErr = err
			return
		}
		sendErr = sig.TrySend(frame)
	})
	if sendErr != nil {
		log.Warn().Err(sendErr).Str("module", "orch").Str("sid", string(sid)).Msg("initial snapshot not delivered")
	}
	return sendErr
}

// Watch marks the observer as interested in the room. A watched room is
// never scheduled for deletion.
func (o *Orchestrator) Watch(sid core.SessionID, id domain.RoomID) error {
	if id == "" {
		return domain.ErrInvalidRequest
	}
	if err := o.Registry.Watch(sid, id); err != nil {
		return err
	}
	o.Reaper.Cancel(id)
	return nil
}

func (o *Orchestrator) Unwatch(sid core.SessionID) {
	o.Registry.Unwatch(sid)
}

// OnDisconnect only drops the observer. Its participant, if any, is
// reconciled by the reaper once nobody watches the room.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	if room, ok := o.Registry.Unbind(sid); ok {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(room)).Msg("observer left watched room")
	}
}
