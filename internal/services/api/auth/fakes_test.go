package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Postboard/internal/domain"
	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	domainoutbox "github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/NordCoder/Postboard/internal/domain/user"
	"github.com/stretchr/testify/require"

	authcore "github.com/NordCoder/Postboard/internal/auth"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*user.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeRefreshTokens struct {
	mu         sync.Mutex
	rows       map[string]domainauth.RefreshToken
	consumeErr error
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{rows: map[string]domainauth.RefreshToken{}}
}

func (f *fakeRefreshTokens) Create(_ context.Context, t *domainauth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.Token]; ok {
		return domain.ErrConflict
	}
	f.rows[t.Token] = *t
	return nil
}

func (f *fakeRefreshTokens) Consume(_ context.Context, token string) (*domainauth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	rec, ok := f.rows[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(f.rows, token)
	return &rec, nil
}

func (f *fakeRefreshTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, token)
	return nil
}

func (f *fakeRefreshTokens) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.rows {
		if v.UserID == userID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.rows {
		if v.ExpiresAt.Before(before) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshTokens) get(token string) (domainauth.RefreshToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[token]
	return rec, ok
}

func (f *fakeRefreshTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOutbox struct {
	mu    sync.Mutex
	kinds []domainoutbox.Kind
	err   error
}

func (f *fakeOutbox) Enqueue(_ context.Context, _ string, kind domainoutbox.Kind, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *fakeOutbox) PickBatch(context.Context, int, time.Duration) ([]domainoutbox.Message, error) {
	return nil, errors.New("not used")
}

func (f *fakeOutbox) MarkSuccess(context.Context, []string) error { return nil }

func (f *fakeOutbox) enqueued() []domainoutbox.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainoutbox.Kind(nil), f.kinds...)
}

type fixture struct {
	uc     *Usecase
	users  *fakeUsers
	rt     *fakeRefreshTokens
	outbox *fakeOutbox
	tokens *authcore.JWTService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := authcore.NewTokenService(authcore.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		users:  newFakeUsers(),
		rt:     newFakeRefreshTokens(),
		outbox: &fakeOutbox{},
		tokens: tokens,
	}
	f.uc = NewUseCase(Deps{
		Users:  f.users,
		Tokens: f.rt,
		Hasher: authcore.NewBcryptHasher(4),
		Signer: tokens,
		Tx:     fakeTx{},
		Outbox: f.outbox,
	})
	return f
}

func (f *fixture) register(t *testing.T, email, password string) *user.User {
	t.Helper()
	u, err := f.uc.Register(context.Background(), domainauth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	require.NoError(t, err)
	return u
}
