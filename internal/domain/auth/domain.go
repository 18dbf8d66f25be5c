package auth

import (
	"errors"
	"time"
)

var (
	ErrDuplicateEmail        = errors.New("email already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrTokenInvalid          = errors.New("token invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrTokenReuseDetected    = errors.New("refresh token reuse detected")
	ErrUnauthorized          = errors.New("unauthorized")
)

// Claims is what a verified access or refresh token carries.
type Claims struct {
	UserID    int64
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken is a persisted, not yet redeemed refresh token. Redeeming
// deletes the row.
type RefreshToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
