package guard

import (
	"net/http"

	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/services/api/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var rejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guard_rejections_total",
	Help: "Requests rejected by route guards.",
}, []string{"route"})

// Route is one handler registration. A nil Guard inherits the group default.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Guard   *Policy
}

func (r Route) With(p Policy) Route {
	r.Guard = &p
	return r
}

type Group struct {
	def Policy
	log *zap.Logger
}

func NewGroup(def Policy, log *zap.Logger) *Group {
	return &Group{def: def.normalized(), log: log.With(zap.String("component", "guard"))}
}

// Resolve returns the most specific policy declared for rt.
func (g *Group) Resolve(rt Route) Policy {
	if rt.Guard != nil {
		return rt.Guard.normalized()
	}
	return g.def
}

func (g *Group) Register(r chi.Router, routes ...Route) {
	for _, rt := range routes {
		p := g.Resolve(rt)
		g.log.Debug("route guarded",
			zap.String("method", rt.Method), zap.String("pattern", rt.Pattern), zap.Stringer("policy", p))
		r.With(g.Middleware(rt.Method+" "+rt.Pattern, p)).Method(rt.Method, rt.Pattern, rt.Handler)
	}
}

func (g *Group) Middleware(route string, p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := p.Evaluate(r.Context(), r)
			if err != nil {
				rejections.WithLabelValues(route).Inc()
				obs.WithTrace(r.Context(), g.log).Debug("guard rejected request",
					zap.String("route", route), zap.Error(err))
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
