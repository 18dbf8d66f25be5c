package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/NordCoder/Postboard/internal/services/api/auth"
	"github.com/NordCoder/Postboard/internal/services/api/guard"
	"github.com/NordCoder/Postboard/internal/services/api/post"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyAccessToken(string) (*domainauth.Claims, error) {
	return nil, domainauth.ErrTokenExpired
}

func newTestRouter(health func(context.Context) error) http.Handler {
	return NewRouter(RouterDeps{
		Auth:     auth.NewController(nil, zap.NewNop()),
		Posts:    post.NewController(nil, zap.NewNop()),
		Verifier: rejectingVerifier{},
		APIKey:   "ops",
		Limiter:  denyAll{},
		Health:   health,
		Logger:   zap.NewNop(),
	})
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RateLimitsCredentialRoutes(t *testing.T) {
	h := newTestRouter(nil)

	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/auth/login", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/auth/register", nil).Code)
}

func TestRouter_GuardsBeforeHandlers(t *testing.T) {
	h := newTestRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/auth/me", map[string]string{"Authorization": "Bearer x"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/posts/", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPatch, "/posts/1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodDelete, "/posts/1", map[string]string{guard.APIKeyHeader: "nope"}).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/nowhere", nil).Code)
}

func TestRouter_Probes(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newTestRouter(nil), http.MethodGet, "/healthz", nil).Code)

	down := newTestRouter(func(context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/healthz", nil).Code)

	assert.Equal(t, http.StatusOK, serve(down, http.MethodGet, "/metrics", nil).Code)
}
