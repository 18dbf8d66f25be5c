package auth

import (
	"context"
	"time"

	"github.com/NordCoder/Postboard/internal/domain/user"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) bool
}

type TokenService interface {
	SignAccessToken(userID int64) (string, error)
	SignRefreshToken(userID int64) (string, error)
	VerifyAccessToken(token string) (*Claims, error)
	VerifyRefreshToken(token string) (*Claims, error)
}

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error
	// Consume deletes the record and returns it. A missing record is
	// reported as not found; only one of several concurrent callers wins.
	Consume(ctx context.Context, token string) (*RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type Usecase interface {
	Register(ctx context.Context, in RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (TokenPair, error)
	IssueTokenPair(ctx context.Context, userID int64) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID int64) (*user.User, error)
}
