package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/vocably/vocably/internal/domain"
)

func (s *Store) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	var (
		p     domain.Profile
		langs string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT username, bio, avatar_url, native_language, learning_languages
		FROM profiles WHERE username = ?`), username).
		Scan(&p.Username, &p.Bio, &p.AvatarURL, &p.NativeLanguage, &langs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(langs), &p.LearningLanguages); err != nil {
		p.LearningLanguages = nil
	}
	p.LearningLanguages = nonNil(p.LearningLanguages)
	return &p, nil
}

// UpsertProfile inserts or replaces the profile keyed by username.
func (s *Store) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	langs, err := json.Marshal(nonNil(p.LearningLanguages))
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO profiles(username, bio, avatar_url, native_language, learning_languages)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			bio = excluded.bio,
			avatar_url = excluded.avatar_url,
			native_language = excluded.native_language,
			learning_languages = excluded.learning_languages`),
		p.Username, p.Bio, p.AvatarURL, p.NativeLanguage, string(langs))
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, p.Username)
}
