package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authcore "github.com/NordCoder/Postboard/internal/auth"
	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStrategy struct {
	name  string
	err   error
	calls *[]string
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Authenticate(ctx context.Context, _ *http.Request) (context.Context, error) {
	*s.calls = append(*s.calls, s.name)
	return ctx, s.err
}

var (
	errFirst  = errors.New("first failed")
	errSecond = errors.New("second failed")
)

func TestPolicy_AND(t *testing.T) {
	var calls []string
	p := All(
		stubStrategy{name: "a", err: errFirst, calls: &calls},
		stubStrategy{name: "b", calls: &calls},
	)
	_, err := p.Evaluate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, []string{"a"}, calls)

	calls = nil
	p = All(stubStrategy{name: "a", calls: &calls}, stubStrategy{name: "b", calls: &calls})
	_, err = p.Evaluate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestPolicy_OR(t *testing.T) {
	var calls []string
	p := Any(
		stubStrategy{name: "a", err: errFirst, calls: &calls},
		stubStrategy{name: "b", err: errSecond, calls: &calls},
	)
	_, err := p.Evaluate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, errSecond)
	assert.NotErrorIs(t, err, errFirst)
	assert.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	p = Any(
		stubStrategy{name: "a", calls: &calls},
		stubStrategy{name: "b", err: errSecond, calls: &calls},
	)
	_, err = p.Evaluate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, calls)
}

func TestPolicy_ZeroIsPublic(t *testing.T) {
	_, err := Policy{}.Evaluate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, "none", Policy{}.String())
	assert.Equal(t, "bearer OR apikey", Any(BearerToken(nil), APIKey("k")).String())
}

func newTokens(t *testing.T, now func() time.Time) *authcore.JWTService {
	t.Helper()
	s, err := authcore.NewTokenService(authcore.TokenConfig{
		AccessSecret:  []byte("guard-access"),
		RefreshSecret: []byte("guard-refresh"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Now:           now,
	})
	require.NoError(t, err)
	return s
}

func TestBearerAndAPIKeyCombinations(t *testing.T) {
	tokens := newTokens(t, nil)
	bearerS, apiKeyS := BearerToken(tokens), APIKey("operator-key")

	req := httptest.NewRequest(http.MethodDelete, "/posts/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set(APIKeyHeader, "operator-key")

	_, err := All(bearerS, apiKeyS).Evaluate(req.Context(), req)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalid)

	ctx, err := Any(bearerS, apiKeyS).Evaluate(req.Context(), req)
	require.NoError(t, err)
	id := IdentityFromCtx(ctx)
	assert.True(t, id.Operator)
	assert.Zero(t, id.UserID)
}

func TestBearer_SetsUserID(t *testing.T) {
	tokens := newTokens(t, nil)
	access, err := tokens.SignAccessToken(42)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+access)
	ctx, err := BearerToken(tokens).Authenticate(req.Context(), req)
	require.NoError(t, err)

	id, ok := UserIDFromCtx(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	refresh, err := tokens.SignRefreshToken(42)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+refresh)
	_, err = BearerToken(tokens).Authenticate(req.Context(), req)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
}

func TestAPIKey_EmptyConfiguredKeyNeverMatches(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := APIKey("").Authenticate(req.Context(), req)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)

	req.Header.Set(APIKeyHeader, "anything")
	_, err = APIKey("").Authenticate(req.Context(), req)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)

	req.Header.Set(APIKeyHeader, "wrong")
	_, err = APIKey("right").Authenticate(req.Context(), req)
	assert.ErrorIs(t, err, domainauth.ErrUnauthorized)
}

func TestGroup_ExpiredTokenNeverReachesHandler(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	expired, err := newTokens(t, func() time.Time { return past }).SignAccessToken(7)
	require.NoError(t, err)

	g := NewGroup(Public(), zap.NewNop())
	invoked := false
	r := chi.NewRouter()
	g.Register(r, Route{
		Method:  http.MethodGet,
		Pattern: "/secret",
		Handler: func(w http.ResponseWriter, _ *http.Request) { invoked = true },
	}.With(All(BearerToken(newTokens(t, nil)))))

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	assert.False(t, invoked)
}

func TestGroup_HandlerOverridesDefault(t *testing.T) {
	g := NewGroup(All(APIKey("k")), zap.NewNop())
	open := Route{Method: http.MethodGet, Pattern: "/open"}.With(Public())
	closed := Route{Method: http.MethodGet, Pattern: "/closed"}

	assert.Equal(t, "none", g.Resolve(open).String())
	assert.Equal(t, "apikey", g.Resolve(closed).String())

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	open.Handler, closed.Handler = ok, ok
	r := chi.NewRouter()
	g.Register(r, open, closed)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
