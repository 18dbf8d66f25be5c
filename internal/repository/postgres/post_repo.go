package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Postboard/internal/domain/post"
	"github.com/jackc/pgx/v5"
)

var _ post.Repo = (*PostRepo)(nil)

type PostRepo struct{ db *DB }

func NewPostRepo(db *DB) *PostRepo { return &PostRepo{db: db} }

const (
	qPostInsert = `
INSERT INTO posts (author_id, title, content, published)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at;`

	qPostByID = `
SELECT id, author_id, title, content, published, created_at, updated_at
FROM posts
WHERE id = $1;`

	qPostList = `
SELECT id, author_id, title, content, published, created_at, updated_at
FROM posts
WHERE ($3::bool = FALSE OR published)
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;`

	qPostUpdate = `
UPDATE posts
SET title      = $2,
    content    = $3,
    published  = $4,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at;`

	qPostDelete = `
DELETE FROM posts WHERE id = $1;`
)

func (r *PostRepo) Create(ctx context.Context, p *post.Post) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qPostInsert, p.AuthorID, p.Title, p.Content, p.Published).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if cerr := classify(err); cerr != err {
			return cerr
		}
		return fmt.Errorf("post insert: %w", err)
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (*post.Post, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p post.Post
	if err := scanPost(r.db.execQueryer(ctx).QueryRow(ctx, qPostByID, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) List(ctx context.Context, f post.ListFilter) ([]*post.Post, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qPostList, f.Limit, f.Offset, f.OnlyPublished)
	if err != nil {
		return nil, fmt.Errorf("post list: %w", err)
	}
	defer rows.Close()

	out := make([]*post.Post, 0, f.Limit)
	for rows.Next() {
		var p post.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PostRepo) Update(ctx context.Context, p *post.Post) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qPostUpdate, p.ID, p.Title, p.Content, p.Published).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("post update: %w", err)
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qPostDelete, id)
	if err != nil {
		return fmt.Errorf("post delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row, out *post.Post) error {
	if err := row.Scan(&out.ID, &out.AuthorID, &out.Title, &out.Content, &out.Published, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan post: %w", err)
	}
	return nil
}
