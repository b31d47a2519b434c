package orch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/app"
	"github.com/vocably/vocably/internal/clock"
	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

// Orchestrator is the entry point adapters call for every occupancy,
// observer and directory operation.
type Orchestrator struct {
	Registry  *app.Registry
	Occupancy *app.OccupancyStore
	Reaper    *app.Reaper
	Rooms     core.RoomDirectory
	Profiles  core.ProfileStore
	Clock     clock.Clock
}

func (o *Orchestrator) clk() clock.Clock {
	if o.Clock == nil {
		return clock.Real()
	}
	return o.Clock
}

// Join records one participant entering the room and returns the new count.
func (o *Orchestrator) Join(ctx context.Context, id domain.RoomID) (int, error) {
	if id == "" {
		return 0, domain.ErrInvalidRequest
	}
	if _, tracked := o.Occupancy.Count(id); !tracked {
		if _, err := o.Rooms.GetRoom(ctx, id); err != nil {
			return 0, err
		}
	}
	if !o.Reaper.Cancel(id) {
		return 0, domain.ErrRoomNotFound
	}
	n := o.Occupancy.Increment(id)
	log.Info().Str("module", "orch").Str("room_id", string(id)).Int("count", n).Msg("participant joined")
	return n, nil
}

// Leave records one participant leaving. Leaving a room that was never
// joined reports 0 and does not start tracking it.
func (o *Orchestrator) Leave(_ context.Context, id domain.RoomID) (int, error) {
	if id == "" {
		return 0, domain.ErrInvalidRequest
	}
	n := o.Occupancy.Decrement(id)
	log.Info().Str("module", "orch").Str("room_id", string(id)).Int("count", n).Msg("participant left")
	return n, nil
}

func (o *Orchestrator) Counts() core.Snapshot {
	return o.Occupancy.Snapshot()
}

// Seed tracks every persisted room at its mirrored count so the reaper can
// reclaim rooms left over from a previous process.
func (o *Orchestrator) Seed(ctx context.Context) error {
	rooms, err := o.Rooms.ListRooms(ctx)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		o.Occupancy.Track(r.ID, r.Occupancy)
	}
	log.Info().Str("module", "orch").Int("rooms", len(rooms)).Msg("seeded occupancy from room table")
	return nil
}

// EvictRoom removes the room from the directory and stops tracking it.
func (o *Orchestrator) EvictRoom(ctx context.Context, id domain.RoomID) error {
	o.Reaper.Cancel(id)
	err := o.Rooms.DeleteRoom(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return err
	}
	o.Occupancy.Remove(id)
	log.Info().Str("module", "orch").Str("room_id", string(id)).Msg("room evicted")
	return nil
}
