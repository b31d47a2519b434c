package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/vocably/vocably/internal/domain"
)

const roomColumns = `id, name, max_participants, participants, language, language_level, is_public,
	password, created_by, created_by_name, topic, tags, created_at`

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room) error {
	tags, err := json.Marshal(nonNil(room.Tags))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO rooms(`+roomColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		string(room.ID), string(room.Name), room.MaxOccupancy, room.Occupancy, room.Language,
		string(room.LanguageLevel), room.IsPublic, room.Password, string(room.CreatedBy),
		room.CreatedByName, room.Topic, string(tags), room.CreatedAt.UTC())
	if err != nil && isConstraintError(err) {
		return domain.ErrInvalidRoom
	}
	return err
}

// GetRoom returns domain.ErrRoomNotFound for unknown ids.
func (s *Store) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+roomColumns+` FROM rooms WHERE id = ?`), string(id))
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	return room, err
}

// ListRooms returns every room, newest first.
func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOccupancy(ctx context.Context, id domain.RoomID, occupancy int) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE rooms SET participants = ? WHERE id = ?`), occupancy, string(id))
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *Store) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM rooms WHERE id = ?`), string(id))
	if err != nil {
		return err
	}
	return expectOne(res)
}

// AddReport records one report per reporter and returns the room's report count.
func (s *Store) AddReport(ctx context.Context, id domain.RoomID, reporter domain.UserID) (int, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO room_reports(room_id, reporter_id, created_at) VALUES(?, ?, ?)`),
		string(id), string(reporter), time.Now().UTC())
	if err != nil {
		if isConstraintError(err) {
			return s.reportCount(ctx, id, domain.ErrAlreadyReported)
		}
		return 0, err
	}
	return s.reportCount(ctx, id, nil)
}

func (s *Store) reportCount(ctx context.Context, id domain.RoomID, cause error) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM room_reports WHERE room_id = ?`), string(id)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, cause
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(sc scanner) (*domain.Room, error) {
	var (
		r                      domain.Room
		id, name, level, owner string
		tags                   string
	)
	err := sc.Scan(&id, &name, &r.MaxOccupancy, &r.Occupancy, &r.Language, &level, &r.IsPublic,
		&r.Password, &owner, &r.CreatedByName, &r.Topic, &tags, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.RoomID(id)
	r.Name = domain.RoomName(name)
	r.LanguageLevel = domain.LanguageLevel(level)
	r.CreatedBy = domain.UserID(owner)
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		r.Tags = nil
	}
	r.Tags = nonNil(r.Tags)
	return &r, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
