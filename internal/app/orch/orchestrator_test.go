package orch

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vocably/vocably/internal/app"
	"github.com/vocably/vocably/internal/clock"
	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
	"github.com/vocably/vocably/internal/storage"
)

type captureSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
}

func (c *captureSignal) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *captureSignal) Close() {}

func (c *captureSignal) last(t *testing.T) core.CountsMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatalf("no frames received")
	}
	var msg core.CountsMessage
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &msg); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return msg
}

type fixture struct {
	o     *Orchestrator
	store *storage.Store
	clock *clock.FakeClock
	owner *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "orch.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	fc := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	reg := app.NewRegistry()
	occ := app.NewOccupancyStore(app.NewDirectNotifier(reg, nil), nil)
	reaper := app.NewReaper(occ, reg, db, app.WithClock(fc))
	owner, _ := domain.NewUser("u1", "alice")
	return &fixture{
		o: &Orchestrator{
			Registry:  reg,
			Occupancy: occ,
			Reaper:    reaper,
			Rooms:     db,
			Profiles:  db,
			Clock:     fc,
		},
		store: db,
		clock: fc,
		owner: owner,
	}
}

func (f *fixture) createRoom(t *testing.T, d domain.RoomDraft) *RoomView {
	t.Helper()
	if d.Name == "" {
		d.Name = "Practice"
	}
	if d.MaxOccupancy == 0 {
		d.MaxOccupancy = 4
	}
	if d.LanguageLevel == "" {
		d.LanguageLevel = domain.LevelIntermediate
	}
	v, err := f.o.CreateRoom(context.Background(), d, f.owner)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return v
}

func TestJoinLeaveCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})

	for want := 1; want <= 2; want++ {
		n, err := f.o.Join(ctx, room.ID)
		if err != nil || n != want {
			t.Fatalf("Join = %d, %v; want %d", n, err, want)
		}
	}
	if n, _ := f.o.Leave(ctx, room.ID); n != 1 {
		t.Fatalf("Leave = %d", n)
	}
	if got := f.o.Counts()[room.ID]; got != 1 {
		t.Fatalf("Counts = %d", got)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	f := newFixture(t)
	if _, err := f.o.Join(context.Background(), "nope"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := f.o.Join(context.Background(), ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestLeaveUnseenRoomStaysUntracked(t *testing.T) {
	f := newFixture(t)
	n, err := f.o.Leave(context.Background(), "ghost")
	if err != nil || n != 0 {
		t.Fatalf("Leave = %d, %v", n, err)
	}
	if _, ok := f.o.Counts()["ghost"]; ok {
		t.Fatalf("leave started tracking an unseen room")
	}
}

func TestJoinCancelsPendingDeletion(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})
	f.o.Reaper.Sweep()
	if _, ok := f.o.Reaper.Pending(room.ID); !ok {
		t.Fatalf("empty room not scheduled")
	}
	if _, err := f.o.Join(context.Background(), room.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, ok := f.o.Reaper.Pending(room.ID); ok {
		t.Fatalf("join did not cancel deletion")
	}
}

// slowDelete runs hook while the room record is being deleted.
type slowDelete struct {
	*storage.Store
	hook func()
}

func (s *slowDelete) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	s.hook()
	return s.Store.DeleteRoom(ctx, id)
}

func TestJoinRefusedWhileRoomIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})
	table := &slowDelete{Store: f.store}
	f.o.Reaper = app.NewReaper(f.o.Occupancy, f.o.Registry, table, app.WithClock(f.clock))
	table.hook = func() {
		if _, err := f.o.Join(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
			t.Errorf("Join during delete = %v", err)
		}
		if _, err := f.o.Enter(ctx, room.ID, "", f.owner); !errors.Is(err, domain.ErrRoomNotFound) {
			t.Errorf("Enter during delete = %v", err)
		}
	}

	f.o.Reaper.Sweep()
	f.clock.Advance(app.DefaultGracePeriod)

	if _, ok := f.o.Counts()[room.ID]; ok {
		t.Fatalf("deleted room still counted: %v", f.o.Counts())
	}
	if _, err := f.o.Join(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("Join after delete = %v", err)
	}
}

func TestEnterChecksPasswordAndCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{MaxOccupancy: 2, Password: "s3cret"})
	if !room.HasPassword {
		t.Fatalf("private room without password flag")
	}

	if _, err := f.o.Enter(ctx, room.ID, "wrong", f.owner); !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	for want := 1; want <= 2; want++ {
		if n, err := f.o.Enter(ctx, room.ID, "s3cret", f.owner); err != nil || n != want {
			t.Fatalf("Enter = %d, %v", n, err)
		}
	}
	n, err := f.o.Enter(ctx, room.ID, "s3cret", f.owner)
	if !errors.Is(err, domain.ErrRoomFull) || n != 2 {
		t.Fatalf("Enter on full room = %d, %v", n, err)
	}
}

func TestListRoomsFiltersAndMergesLiveCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createRoom(t, domain.RoomDraft{Name: "Alpha", IsPublic: true, MaxOccupancy: 1, Tags: []string{"travel"}})
	f.clock.Advance(time.Minute)
	b := f.createRoom(t, domain.RoomDraft{Name: "beta", Password: "x"})
	f.clock.Advance(time.Minute)
	c := f.createRoom(t, domain.RoomDraft{Name: "Gamma", IsPublic: true})

	if _, err := f.o.Join(ctx, a.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.o.Join(ctx, c.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter RoomFilter
		want   []domain.RoomID
	}{
		{"newest", RoomFilter{}, []domain.RoomID{c.ID, b.ID, a.ID}},
		{"popular", RoomFilter{Sort: SortPopular}, []domain.RoomID{c.ID, a.ID, b.ID}},
		{"alphabetical", RoomFilter{Sort: SortAlphabetical}, []domain.RoomID{a.ID, b.ID, c.ID}},
		{"private", RoomFilter{Type: TypePrivate}, []domain.RoomID{b.ID}},
		{"full", RoomFilter{Availability: AvailabilityFull}, []domain.RoomID{a.ID}},
		{"available public", RoomFilter{Type: TypePublic, Availability: AvailabilityAvailable}, []domain.RoomID{c.ID}},
		{"query tag", RoomFilter{Query: "TRAV"}, []domain.RoomID{a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := f.o.ListRooms(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRooms: %v", err)
			}
			if len(rooms) != len(tt.want) {
				t.Fatalf("got %d rooms, want %d", len(rooms), len(tt.want))
			}
			for i, id := range tt.want {
				if rooms[i].ID != id {
					t.Fatalf("rooms[%d] = %s, want %s", i, rooms[i].Name, id)
				}
			}
		})
	}

	got, err := f.o.GetRoom(ctx, c.ID)
	if err != nil || got.Occupancy != 2 {
		t.Fatalf("GetRoom live count = %+v, %v", got, err)
	}
}

func TestReportRoomEvictsAtThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})

	for i := 1; i <= domain.ReportsForRemoval; i++ {
		u, _ := domain.NewUser(string(rune('a'+i)), "")
		res, err := f.o.ReportRoom(ctx, room.ID, u)
		if err != nil {
			t.Fatalf("ReportRoom: %v", err)
		}
		if res.Count != i || res.ShouldDelete != (i == domain.ReportsForRemoval) {
			t.Fatalf("report %d = %+v", i, res)
		}
	}
	if _, err := f.store.GetRoom(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("reported room not removed: %v", err)
	}
	if _, ok := f.o.Counts()[room.ID]; ok {
		t.Fatalf("evicted room still tracked")
	}
}

func TestReportRoomDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})
	if _, err := f.o.ReportRoom(ctx, room.ID, f.owner); err != nil {
		t.Fatalf("ReportRoom: %v", err)
	}
	res, err := f.o.ReportRoom(ctx, room.ID, f.owner)
	if !errors.Is(err, domain.ErrAlreadyReported) || res.Count != 1 {
		t.Fatalf("duplicate = %+v, %v", res, err)
	}
}

func TestAttachSendsSnapshotThenUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})
	if _, err := f.o.Join(ctx, room.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	sig := &captureSignal{}
	if err := f.o.Attach("s1", "c1", sig, nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if msg := sig.last(t); msg.Type != "counts" || msg.Rooms[room.ID] != 1 {
		t.Fatalf("initial snapshot = %+v", msg)
	}

	if _, err := f.o.Join(ctx, room.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if msg := sig.last(t); msg.Rooms[room.ID] != 2 {
		t.Fatalf("update = %+v", msg)
	}

	f.o.OnDisconnect("s1")
	if f.o.Registry.Len() != 0 {
		t.Fatalf("observer still registered")
	}
}

func TestWatchKeepsRoomAlive(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, domain.RoomDraft{IsPublic: true})
	if err := f.o.Attach("s1", "", &captureSignal{}, nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	f.o.Reaper.Sweep()
	if err := f.o.Watch("s1", room.ID); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if _, ok := f.o.Reaper.Pending(room.ID); ok {
		t.Fatalf("watch did not cancel deletion")
	}
	if err := f.o.Watch("nobody", room.ID); !errors.Is(err, domain.ErrObserverNotBound) {
		t.Fatalf("expected ErrObserverNotBound, got %v", err)
	}

	f.o.Unwatch("s1")
	f.o.Reaper.Sweep()
	if _, ok := f.o.Reaper.Pending(room.ID); !ok {
		t.Fatalf("unwatched empty room not scheduled")
	}
}

func TestSeedTracksPersistedRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _ := domain.NewRoom(domain.RoomDraft{Name: "left over", MaxOccupancy: 3, LanguageLevel: domain.LevelAdvanced, IsPublic: true}, f.owner, f.clock.Now())
	room.Occupancy = 2
	if err := f.store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if err := f.o.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n, ok := f.o.Occupancy.Count(room.ID); !ok || n != 2 {
		t.Fatalf("seeded count = %d, %v", n, ok)
	}
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.o.GetProfile(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := f.o.SaveProfile(ctx, &domain.Profile{Username: "alice", NativeLanguage: "en"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	p, err := f.o.GetProfile(ctx, "alice")
	if err != nil || p.NativeLanguage != "en" {
		t.Fatalf("GetProfile = %+v, %v", p, err)
	}
}
