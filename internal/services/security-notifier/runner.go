package notifier

import (
	"context"
	"errors"

	domainkafka "github.com/NordCoder/Postboard/internal/domain/kafka"
	kafkax "github.com/NordCoder/Postboard/internal/repository/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "security_notifier_events_consumed_total",
		Help: "Auth events consumed, by type.",
	}, []string{"type"})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "security_notifier_errors_total",
		Help: "Auth events whose handling failed, by type.",
	}, []string{"type"})
)

type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

type Runner struct {
	log *zap.Logger
	sub Subscriber
	h   *Handler
}

func NewRunner(log *zap.Logger, sub Subscriber, h *Handler) *Runner {
	if h.Log == nil {
		h.Log = log
	}
	return &Runner{log: log.With(zap.String("component", "security-notifier.runner")), sub: sub, h: h}
}

func (r *Runner) Run(ctx context.Context) error {
	err := r.sub.Consume(ctx, kafkax.JSONHandler(r.handle))
	if err != nil && !errors.Is(err, context.Canceled) {
		r.log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}

// Unknown events are acknowledged without retry.
func (r *Runner) handle(ctx context.Context, _ []byte, ev *domainkafka.AuthEvent) error {
	mConsumed.WithLabelValues(ev.Type).Inc()
	err := r.h.HandleEvent(ctx, *ev)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnknownEvent):
		r.log.Info("event skipped", zap.String("type", ev.Type), zap.Error(err))
		return nil
	default:
		mErrors.WithLabelValues(ev.Type).Inc()
		return err
	}
}
