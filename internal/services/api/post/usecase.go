package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NordCoder/Postboard/internal/domain"
	"github.com/NordCoder/Postboard/internal/domain/post"
	"github.com/NordCoder/Postboard/internal/obs"
	"go.uber.org/zap"
)

const (
	maxTitleLen  = 200
	defaultLimit = 20
	maxLimit     = 100
)

var _ post.Usecase = (*Usecase)(nil)

type Usecase struct {
	repo post.Repo
	log  *zap.Logger
}

func NewUseCase(repo post.Repo, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, log: log.With(zap.String("component", "post.usecase"))}
}

func validate(title, content string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n == 0 || n > maxTitleLen {
		return fmt.Errorf("%w: title must be 1..%d characters", post.ErrInvalidPost, maxTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", post.ErrInvalidPost)
	}
	return nil
}

func (u *Usecase) Create(ctx context.Context, authorID int64, in post.CreateInput) (*post.Post, error) {
	if err := validate(in.Title, in.Content); err != nil {
		return nil, err
	}
	p := &post.Post{
		AuthorID:  authorID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Published: in.Published,
	}
	if err := u.repo.Create(ctx, p); err != nil {
		return nil, storeErr("create post", err)
	}
	obs.WithTrace(ctx, u.log).Info("post created", zap.Int64("post_id", p.ID), zap.Int64("author_id", authorID))
	return p, nil
}

func (u *Usecase) Get(ctx context.Context, id int64) (*post.Post, error) {
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return p, nil
}

// NormalizeFilter clamps the page size to 1..100 and the offset to >= 0.
func NormalizeFilter(f post.ListFilter) post.ListFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (u *Usecase) List(ctx context.Context, f post.ListFilter) ([]*post.Post, error) {
	out, err := u.repo.List(ctx, NormalizeFilter(f))
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return out, nil
}

func (u *Usecase) Update(ctx context.Context, requesterID, id int64, patch post.Patch) (*post.Post, error) {
	p, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != requesterID {
		return nil, post.ErrForbidden
	}

	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
	if err := validate(p.Title, p.Content); err != nil {
		return nil, err
	}

	if err := u.repo.Update(ctx, p); err != nil {
		return nil, storeErr("update post", err)
	}
	return p, nil
}

// Delete removes a post owned by the requester. Operators may delete any post.
func (u *Usecase) Delete(ctx context.Context, who post.Requester, id int64) error {
	if !who.Operator {
		p, err := u.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.AuthorID != who.UserID {
			return post.ErrForbidden
		}
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return storeErr("delete post", err)
	}
	obs.WithTrace(ctx, u.log).Info("post deleted",
		zap.Int64("post_id", id), zap.Int64("user_id", who.UserID), zap.Bool("operator", who.Operator))
	return nil
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return post.ErrNotFound
	case errors.Is(err, domain.ErrConstraint):
		return fmt.Errorf("%w: %w", post.ErrInvalidPost, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
