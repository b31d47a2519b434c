package core

import (
	"context"

	"github.com/vocably/vocably/internal/domain"
)

// RoomDirectory is the persisted room catalogue.
type RoomDirectory interface {
	RoomTable
	CreateRoom(ctx context.Context, room *domain.Room) error
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	// AddReport returns the number of distinct reporters after the insert.
	AddReport(ctx context.Context, id domain.RoomID, reporter domain.UserID) (int, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, username string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
}
