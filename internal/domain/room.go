package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type (
	RoomName string
	RoomID   string
)

const (
	MaxRoomNameLen    = 64
	MaxTopicLen       = 200
	MaxTags           = 10
	MaxRoomOccupancy  = 50
	ReportsForRemoval = 5
)

type LanguageLevel string

const (
	LevelBeginner     LanguageLevel = "beginner"
	LevelIntermediate LanguageLevel = "intermediate"
	LevelAdvanced     LanguageLevel = "advanced"
)

func (l LanguageLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Room is the directory record of a conversation session.
// Occupancy is owned by the occupancy store; the value here is the mirrored copy.
type Room struct {
	ID            RoomID        `json:"id"`
	Name          RoomName      `json:"name"`
	MaxOccupancy  int           `json:"max_participants"`
	Occupancy     int           `json:"participants"`
	Language      string        `json:"language"`
	LanguageLevel LanguageLevel `json:"language_level"`
	IsPublic      bool          `json:"is_public"`
	Password      string        `json:"-"` // bcrypt hash
	CreatedBy     UserID        `json:"created_by"`
	CreatedByName string        `json:"created_by_name"`
	Topic         string        `json:"topic,omitempty"`
	Tags          []string      `json:"tags"`
	CreatedAt     time.Time     `json:"created_at"`
}

// HasPassword reports whether entering the room requires a password.
func (r *Room) HasPassword() bool { return !r.IsPublic && r.Password != "" }

// CheckPassword is a no-op for rooms without a password.
func (r *Room) CheckPassword(password string) error {
	if !r.HasPassword() {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(r.Password), []byte(password)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// RoomDraft carries the caller-provided fields of a new room.
type RoomDraft struct {
	Name          string
	MaxOccupancy  int
	Language      string
	LanguageLevel LanguageLevel
	IsPublic      bool
	Password      string
	Topic         string
	Tags          []string
}

// NewRoom validates the draft and stamps id, owner and creation time.
func NewRoom(d RoomDraft, owner *User, now time.Time) (*Room, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" || len(name) > MaxRoomNameLen {
		return nil, ErrInvalidRoom
	}
	if d.MaxOccupancy < 1 || d.MaxOccupancy > MaxRoomOccupancy {
		return nil, ErrInvalidRoom
	}
	if !d.LanguageLevel.Valid() {
		return nil, ErrInvalidRoom
	}
	if len(d.Topic) > MaxTopicLen || len(d.Tags) > MaxTags {
		return nil, ErrInvalidRoom
	}
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	var password string
	if !d.IsPublic && d.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrInvalidRoom
		}
		password = string(hash)
	}
	return &Room{
		ID:            RoomID(uuid.NewString()),
		Name:          RoomName(name),
		MaxOccupancy:  d.MaxOccupancy,
		Language:      strings.TrimSpace(d.Language),
		LanguageLevel: d.LanguageLevel,
		IsPublic:      d.IsPublic,
		Password:      password,
		CreatedBy:     owner.ID,
		CreatedByName: owner.Username,
		Topic:         strings.TrimSpace(d.Topic),
		Tags:          tags,
		CreatedAt:     now.UTC(),
	}, nil
}
