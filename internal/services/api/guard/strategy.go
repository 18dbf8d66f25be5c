package guard

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
)

const APIKeyHeader = "X-API-Key"

// Strategy authenticates one request. On success it returns ctx enriched
// with whatever identity it established.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}

type AccessVerifier interface {
	VerifyAccessToken(token string) (*domainauth.Claims, error)
}

type bearerStrategy struct {
	v AccessVerifier
}

func BearerToken(v AccessVerifier) Strategy { return bearerStrategy{v: v} }

func (bearerStrategy) Name() string { return "bearer" }

func (s bearerStrategy) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	token, ok := bearer(r)
	if !ok {
		return ctx, fmt.Errorf("%w: missing bearer token", domainauth.ErrUnauthorized)
	}
	claims, err := s.v.VerifyAccessToken(token)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", domainauth.ErrUnauthorized, err)
	}
	id := IdentityFromCtx(ctx)
	id.UserID = claims.UserID
	return withIdentity(ctx, id), nil
}

func bearer(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	if len(v) < 7 || !strings.EqualFold(v[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(v[7:])
	return token, token != ""
}

type apiKeyStrategy struct {
	key []byte
}

// APIKey matches the X-API-Key header against key. An empty key matches
// nothing.
func APIKey(key string) Strategy { return apiKeyStrategy{key: []byte(key)} }

func (apiKeyStrategy) Name() string { return "apikey" }

func (s apiKeyStrategy) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	got := r.Header.Get(APIKeyHeader)
	if got == "" {
		return ctx, fmt.Errorf("%w: missing api key", domainauth.ErrUnauthorized)
	}
	if len(s.key) == 0 || subtle.ConstantTimeCompare([]byte(got), s.key) != 1 {
		return ctx, fmt.Errorf("%w: invalid api key", domainauth.ErrUnauthorized)
	}
	id := IdentityFromCtx(ctx)
	id.Operator = true
	return withIdentity(ctx, id), nil
}

type noneStrategy struct{}

func None() Strategy { return noneStrategy{} }

func (noneStrategy) Name() string { return "none" }

func (noneStrategy) Authenticate(ctx context.Context, _ *http.Request) (context.Context, error) {
	return ctx, nil
}
