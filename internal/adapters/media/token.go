// Package media issues access tokens for the external conferencing service.
package media

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("media service is not configured")
	ErrInvalidToken  = errors.New("token is invalid")
)

// VideoGrant is the room permission set carried in the token.
type VideoGrant struct {
	Room         string `json:"room"`
	RoomJoin     bool   `json:"roomJoin"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

type Claims struct {
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

type Issuer struct {
	APIKey    string
	APISecret string
	ServerURL string
	TTL       time.Duration
	now       func() time.Time
}

func NewIssuer(apiKey, apiSecret, serverURL string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Issuer{APIKey: apiKey, APISecret: apiSecret, ServerURL: serverURL, TTL: ttl, now: time.Now}
}

func (i *Issuer) Configured() bool {
	return i != nil && i.APIKey != "" && i.APISecret != "" && i.ServerURL != ""
}

// Issue signs a token that lets identity join room under the display name.
func (i *Issuer) Issue(identity, name, room string) (string, error) {
	if !i.Configured() {
		return "", ErrNotConfigured
	}
	now := i.now()
	claims := Claims{
		Name: name,
		Video: VideoGrant{
			Room:         room,
			RoomJoin:     true,
			CanPublish:   true,
			CanSubscribe: true,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.APIKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.APISecret))
}

// Verify parses a token signed by this issuer.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(i.APISecret), nil
	}, jwt.WithIssuer(i.APIKey), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
