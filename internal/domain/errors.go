package domain

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidRoom      = errors.New("invalid room")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrAlreadyReported  = errors.New("already reported by this user")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUnauthenticated  = errors.New("sign in required")
	ErrUsernameTooLong  = errors.New("username too long")
	ErrUsernameEmpty    = errors.New("username empty")
	ErrObserverNotBound = errors.New("observer not bound")
)
