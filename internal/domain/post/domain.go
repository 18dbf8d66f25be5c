package post

import (
	"errors"
	"time"
)

var (
	ErrInvalidPost = errors.New("invalid post")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("post not found")
)

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch holds the fields of a partial update; nil means unchanged.
type Patch struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

type ListFilter struct {
	Limit         int
	Offset        int
	OnlyPublished bool
}
