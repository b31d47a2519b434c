// Package domain contains entity without logic, just meta-data
package domain

import "strings"

const (
	MaxUserIDLen   = 128
	MaxUsernameLen = 36
	MaxBioLen      = 500
)

type UserID string

// User is the identity asserted by the upstream identity provider.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id, username string) (*User, error) {
	if id == "" || len(id) > MaxUserIDLen {
		return nil, ErrUnauthenticated
	}
	u := &User{ID: UserID(id)}
	if username == "" {
		username = id
	}
	if err := u.SetUsername(username); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	u.Username = username
	return nil
}

// Profile is the public card of a user.
type Profile struct {
	Username          string   `json:"username"`
	Bio               string   `json:"bio"`
	AvatarURL         string   `json:"avatar_url"`
	NativeLanguage    string   `json:"native_language"`
	LearningLanguages []string `json:"learning_languages"`
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return ErrUsernameEmpty
	}
	if len(p.Username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	if len(p.Bio) > MaxBioLen {
		return ErrInvalidRequest
	}
	return nil
}
