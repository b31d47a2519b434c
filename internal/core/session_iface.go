package core

import "github.com/vocably/vocably/internal/domain"

// SessionID identifies one live-update connection.
type SessionID string

// ObserverSnap is a read-only view of a registered observer.
type ObserverSnap struct {
	SID    SessionID
	Room   domain.RoomID
	Signal SignalConnection
}
