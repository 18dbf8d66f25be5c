package post

import "context"

type Repo interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, f ListFilter) ([]*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id int64) error
}

type CreateInput struct {
	Title     string
	Content   string
	Published bool
}

// Requester is who is acting on a post. Operator callers authenticated by
// API key and may have no user id.
type Requester struct {
	UserID   int64
	Operator bool
}

type Usecase interface {
	Create(ctx context.Context, authorID int64, in CreateInput) (*Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, f ListFilter) ([]*Post, error)
	Update(ctx context.Context, requesterID, id int64, patch Patch) (*Post, error)
	Delete(ctx context.Context, who Requester, id int64) error
}
