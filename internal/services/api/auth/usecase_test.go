package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	domainoutbox "github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUsecase_RegisterLoginRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "  Alice@Example.com ", "password123")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password)
	assert.Equal(t, []domainoutbox.Kind{domainoutbox.KindUserRegistered}, f.outbox.enqueued())

	pair, err := f.uc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	access, err := f.tokens.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, access.UserID)

	refresh, err := f.tokens.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, refresh.UserID)
}

func TestUsecase_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob@example.com", "password123")

	_, err := f.uc.Register(context.Background(), domainauth.RegisterInput{
		Email:    "BOB@example.com",
		Password: "otherpass1",
		Name:     "Bob",
	})
	assert.ErrorIs(t, err, domainauth.ErrDuplicateEmail)
	assert.Equal(t, 1, f.users.count())
}

func TestUsecase_LoginFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "carol@example.com", "password123")

	_, err := f.uc.Login(context.Background(), "carol@example.com", "wrong-password")
	assert.ErrorIs(t, err, domainauth.ErrIncorrectPassword)

	_, err = f.uc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domainauth.ErrAccountNotFound)

	assert.Zero(t, f.rt.count())
}

func TestUsecase_StoredExpiryMatchesClaim(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "dave@example.com", "password123")

	pair, err := f.uc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)

	claims, err := f.tokens.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	rec, ok := f.rt.get(pair.RefreshToken)
	require.True(t, ok)
	assert.True(t, rec.ExpiresAt.Equal(claims.ExpiresAt))
	assert.Equal(t, u.ID, rec.UserID)
}

func TestUsecase_RefreshRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "erin@example.com", "password123")

	first, err := f.uc.Login(ctx, "erin@example.com", "password123")
	require.NoError(t, err)

	second, err := f.uc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	_, ok := f.rt.get(first.RefreshToken)
	assert.False(t, ok)
	_, ok = f.rt.get(second.RefreshToken)
	assert.True(t, ok)

	_, err = f.uc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrTokenReuseDetected)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
	assert.Contains(t, f.outbox.enqueued(), domainoutbox.KindTokenReuseDetected)
}

func TestUsecase_ConcurrentRefreshSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "frank@example.com", "password123")

	pair, err := f.uc.Login(ctx, "frank@example.com", "password123")
	require.NoError(t, err)

	const n = 16
	var (
		wg     sync.WaitGroup
		wins   atomic.Int32
		reuses atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.Refresh(ctx, pair.RefreshToken)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domainauth.ErrTokenReuseDetected):
				reuses.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(n-1), reuses.Load())
	assert.Equal(t, 1, f.rt.count())
}

func TestUsecase_RefreshInvalidToken(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "gina@example.com", "password123")

	access, err := f.tokens.SignAccessToken(u.ID)
	require.NoError(t, err)

	for _, token := range []string{"garbage", access} {
		_, err := f.uc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, domainauth.ErrInvalidOrExpiredToken)
		assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
		assert.NotErrorIs(t, err, domainauth.ErrTokenReuseDetected)
	}
	assert.Zero(t, f.rt.count())
}

func TestUsecase_RefreshStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "hank@example.com", "password123")
	pair, err := f.uc.Login(context.Background(), "hank@example.com", "password123")
	require.NoError(t, err)

	f.rt.consumeErr = errors.New("connection reset")
	_, err = f.uc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
	assert.NotErrorIs(t, err, domainauth.ErrTokenReuseDetected)
	assert.NotContains(t, f.outbox.enqueued(), domainoutbox.KindTokenReuseDetected)
}

func TestUsecase_LogoutAndMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "iris@example.com", "password123")

	pair, err := f.uc.Login(ctx, "iris@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.uc.Logout(ctx, "not-a-token"))
	assert.Zero(t, f.rt.count())

	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)

	me, err := f.uc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)

	_, err = f.uc.Me(ctx, 999)
	assert.ErrorIs(t, err, domainauth.ErrAccountNotFound)
}

func TestJanitor_Sweep(t *testing.T) {
	rt := newFakeRefreshTokens()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, rt.Create(ctx, &domainauth.RefreshToken{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, rt.Create(ctx, &domainauth.RefreshToken{Token: "fresh", UserID: 1, ExpiresAt: now.Add(time.Hour)}))

	j := NewJanitor(rt, time.Minute, zap.NewNop())
	j.now = func() time.Time { return now }
	j.sweep(ctx)

	_, ok := rt.get("old")
	assert.False(t, ok)
	_, ok = rt.get("fresh")
	assert.True(t, ok)
}
