package orch

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/domain"
)

const (
	SortNewest       = "newest"
	SortPopular      = "popular"
	SortAlphabetical = "alphabetical"

	TypePublic  = "public"
	TypePrivate = "private"

	AvailabilityAvailable = "available"
	AvailabilityFull      = "full"
)

// RoomFilter narrows ListRooms. Empty fields match everything.
type RoomFilter struct {
	Query        string
	Sort         string
	Type         string
	Availability string
}

// RoomView is a directory record with the live count merged in.
type RoomView struct {
	domain.Room
	HasPassword bool `json:"has_password"`
	Full        bool `json:"is_full"`
}

// ReportResult tells the reporter whether the room crossed the removal threshold.
type ReportResult struct {
	Count        int  `json:"count"`
	ShouldDelete bool `json:"shouldDelete"`
}

func (o *Orchestrator) CreateRoom(ctx context.Context, draft domain.RoomDraft, owner *domain.User) (*RoomView, error) {
	if owner == nil {
		return nil, domain.ErrUnauthenticated
	}
	room, err := domain.NewRoom(draft, owner, o.clk().Now())
	if err != nil {
		return nil, err
	}
	if err := o.Rooms.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	o.Occupancy.Track(room.ID, 0)
	log.Info().Str("module", "orch").Str("room_id", string(room.ID)).Str("owner", string(owner.ID)).Msg("room created")
	v := o.view(*room)
	return &v, nil
}

func (o *Orchestrator) GetRoom(ctx context.Context, id domain.RoomID) (*RoomView, error) {
	room, err := o.Rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	v := o.view(*room)
	return &v, nil
}

func (o *Orchestrator) ListRooms(ctx context.Context, f RoomFilter) ([]RoomView, error) {
	rooms, err := o.Rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		v := o.view(r)
		if !matchQuery(&v.Room, q) {
			continue
		}
		switch f.Type {
		case TypePublic:
			if !v.IsPublic {
				continue
			}
		case TypePrivate:
			if v.IsPublic {
				continue
			}
		}
		switch f.Availability {
		case AvailabilityAvailable:
			if v.Full {
				continue
			}
		case AvailabilityFull:
			if !v.Full {
				continue
			}
		}
		out = append(out, v)
	}
	sortRooms(out, f.Sort)
	return out, nil
}

// Enter is the gated join: the password must match and the room must have room.
func (o *Orchestrator) Enter(ctx context.Context, id domain.RoomID, password string, user *domain.User) (int, error) {
	room, err := o.Rooms.GetRoom(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := room.CheckPassword(password); err != nil {
		return 0, err
	}
	if !o.Reaper.Cancel(id) {
		return 0, domain.ErrRoomNotFound
	}
	o.Occupancy.Track(id, 0)
	n, ok := o.Occupancy.IncrementIfBelow(id, room.MaxOccupancy)
	if !ok {
		return n, domain.ErrRoomFull
	}
	ev := log.Info().Str("module", "orch").Str("room_id", string(id)).Int("count", n)
	if user != nil {
		ev = ev.Str("user", string(user.ID))
	}
	ev.Msg("participant entered")
	return n, nil
}

// ReportRoom records a report and evicts the room once enough distinct users reported it.
func (o *Orchestrator) ReportRoom(ctx context.Context, id domain.RoomID, reporter *domain.User) (ReportResult, error) {
	if reporter == nil {
		return ReportResult{}, domain.ErrUnauthenticated
	}
	if _, err := o.Rooms.GetRoom(ctx, id); err != nil {
		return ReportResult{}, err
	}
	n, err := o.Rooms.AddReport(ctx, id, reporter.ID)
	res := ReportResult{Count: n, ShouldDelete: n >= domain.ReportsForRemoval}
	if err != nil {
		return res, err
	}
	log.Info().Str("module", "orch").Str("room_id", string(id)).Int("reports", n).Msg("room reported")
	if res.ShouldDelete {
		if err := o.EvictRoom(ctx, id); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("room_id", string(id)).Msg("evict reported room")
		}
	}
	return res, nil
}

func (o *Orchestrator) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, domain.ErrInvalidRequest
	}
	return o.Profiles.GetProfile(ctx, username)
}

func (o *Orchestrator) SaveProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil {
		return nil, domain.ErrInvalidRequest
	}
	return o.Profiles.UpsertProfile(ctx, p)
}

func (o *Orchestrator) view(r domain.Room) RoomView {
	n, _ := o.Occupancy.Count(r.ID)
	r.Occupancy = n
	return RoomView{
		Room:        r,
		HasPassword: r.HasPassword(),
		Full:        n >= r.MaxOccupancy,
	}
}

func matchQuery(r *domain.Room, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.Name)), q) ||
		strings.Contains(strings.ToLower(r.Topic), q) ||
		strings.Contains(strings.ToLower(r.Language), q) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func sortRooms(rooms []RoomView, by string) {
	newer := func(a, b *RoomView) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch by {
	case SortPopular:
		sort.SliceStable(rooms, func(i, j int) bool {
			if rooms[i].Occupancy != rooms[j].Occupancy {
				return rooms[i].Occupancy > rooms[j].Occupancy
			}
			return newer(&rooms[i], &rooms[j])
		})
	case SortAlphabetical:
		sort.SliceStable(rooms, func(i, j int) bool {
			return strings.ToLower(string(rooms[i].Name)) < strings.ToLower(string(rooms[j].Name))
		})
	default:
		sort.SliceStable(rooms, func(i, j int) bool { return newer(&rooms[i], &rooms[j]) })
	}
}
