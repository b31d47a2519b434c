package core

import (
	"context"
	"encoding/json"

	"github.com/vocably/vocably/internal/domain"
)

//go:generate mockgen -source=occupancy_iface.go -destination=mocks/occupancy_mock.go -package=mocks

// Snapshot maps room id to its live occupancy.
type Snapshot map[domain.RoomID]int

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, n := range s {
		out[id] = n
	}
	return out
}

// CountsMessage is the wire shape of a snapshot push.
type CountsMessage struct {
	Type  string   `json:"type"`
	Rooms Snapshot `json:"rooms"`
}

// EncodeCounts renders the snapshot as a push frame.
func EncodeCounts(s Snapshot) (Frame, error) {
	if s == nil {
		s = Snapshot{}
	}
	return json.Marshal(CountsMessage{Type: "counts", Rooms: s})
}

// Notifier fans a snapshot out to observers.
// Broadcast is called with the occupancy store locked and must not block.
type Notifier interface {
	Broadcast(Snapshot)
}

// RoomTable is the durable room record store the core mirrors into.
type RoomTable interface {
	UpdateOccupancy(ctx context.Context, id domain.RoomID, occupancy int) error
	DeleteRoom(ctx context.Context, id domain.RoomID) error
}

// Mirror copies in-memory counts to the room table.
// Enqueue is called with the occupancy store locked and must not block.
type Mirror interface {
	Enqueue(id domain.RoomID, occupancy int)
}
