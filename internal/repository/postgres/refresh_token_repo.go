package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/jackc/pgx/v5"
)

var _ auth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTCreate = `
INSERT INTO refresh_tokens (token, user_id, expires_at)
VALUES ($1, $2, $3)
RETURNING created_at;`

	// single statement: of two concurrent callers only one gets the row back
	qRTConsume = `
DELETE FROM refresh_tokens
WHERE token = $1
RETURNING token, user_id, expires_at, created_at;`

	qRTDelete = `
DELETE FROM refresh_tokens WHERE token = $1;`

	qRTDeleteByUser = `
DELETE FROM refresh_tokens WHERE user_id = $1;`

	qRTDeleteExpired = `
DELETE FROM refresh_tokens WHERE expires_at < $1;`
)

func (r *RefreshTokenRepo) Create(ctx context.Context, t *auth.RefreshToken) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qRTCreate, t.Token, t.UserID, t.ExpiresAt).Scan(&t.CreatedAt)
	if err != nil {
		if cerr := classify(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("refresh token insert: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) Consume(ctx context.Context, token string) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t auth.RefreshToken
	err := r.db.execQueryer(ctx).QueryRow(ctx, qRTConsume, token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("refresh token consume: %w", err)
	}
	return &t, nil
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRTDelete, token); err != nil {
		return fmt.Errorf("refresh token delete: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTDeleteByUser, userID)
	if err != nil {
		return 0, fmt.Errorf("refresh token delete by user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTDeleteExpired, before)
	if err != nil {
		return 0, fmt.Errorf("refresh token delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
