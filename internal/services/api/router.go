package api

import (
	"context"
	"net/http"

	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/ratelimit"
	"github.com/NordCoder/Postboard/internal/services/api/auth"
	"github.com/NordCoder/Postboard/internal/services/api/guard"
	"github.com/NordCoder/Postboard/internal/services/api/post"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Auth     *auth.Controller
	Posts    *post.Controller
	Verifier guard.AccessVerifier
	APIKey   string
	// Limiter guards the credential endpoints; nil disables limiting.
	Limiter ratelimit.Limiter
	Health  func(context.Context) error
	Logger  *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = func(context.Context) error { return nil }
	}
	bearer := guard.BearerToken(d.Verifier)
	apiKey := guard.APIKey(d.APIKey)
	public := guard.NewGroup(guard.Public(), log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.HTTPMetrics)

	r.Handle("/metrics", obs.MetricsHandler())
	r.Get("/healthz", obs.HealthHandler(d.Health))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(ratelimit.Middleware("auth", d.Limiter, log))
			}
			public.Register(r, d.Auth.CredentialRoutes()...)
		})
		public.Register(r, d.Auth.Routes(bearer)...)
	})
	r.Route("/posts", func(r chi.Router) {
		public.Register(r, d.Posts.Routes(bearer, apiKey)...)
	})

	return obs.HTTPHandler(r, "postboard.http")
}
