package auth

import (
	"context"
	"time"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	janitorRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_tokens_expired_removed_total",
		Help: "Expired refresh token rows deleted by the janitor.",
	})
	janitorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_janitor_errors_total",
		Help: "Failed janitor sweeps.",
	})
	janitorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_janitor_sweep_duration_seconds",
		Help:    "Janitor sweep duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Janitor periodically drops refresh token rows that can no longer verify.
type Janitor struct {
	rt    domainauth.RefreshTokenRepo
	every time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewJanitor(rt domainauth.RefreshTokenRepo, every time.Duration, log *zap.Logger) *Janitor {
	if every <= 0 {
		every = time.Hour
	}
	return &Janitor{
		rt:    rt,
		every: every,
		log:   log.With(zap.String("component", "auth.janitor")),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (j *Janitor) Run(ctx context.Context) error {
	t := time.NewTicker(j.every)
	defer t.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	start := time.Now()
	defer func() { janitorDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := otel.Tracer("auth.janitor").Start(ctx, "auth.janitor.sweep")
	defer span.End()

	n, err := j.rt.DeleteExpired(ctx, j.now())
	if err != nil {
		janitorErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete expired")
		j.log.Warn("delete expired refresh tokens", zap.Error(err))
		return
	}
	span.SetAttributes(attribute.Int64("tokens.removed", n))
	if n > 0 {
		janitorRemoved.Add(float64(n))
		j.log.Info("expired refresh tokens removed", zap.Int64("count", n))
	}
}
