package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainkafka "github.com/NordCoder/Postboard/internal/domain/kafka"
	"github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/NordCoder/Postboard/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind outbox.Kind, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	label := kind.String()
	if pol.Name == "" {
		pol.Name = "outbox_" + label
	}
	wrapped := WrapKindHandler(h, pol)
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+label)
		defer span.End()

		start := time.Now()
		err := wrapped(ctx, data)
		outboxHandlerLatency.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(label).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler routes outbox kinds to the auth events publisher.
func MakeGlobalOutboxHandler(pub domainkafka.AuthEvents, pol retry.Policy) outbox.GlobalHandler {
	handlers := map[outbox.Kind]outbox.KindHandler{
		outbox.KindUserRegistered: instrument(outbox.KindUserRegistered, func(ctx context.Context, data []byte) error {
			var p outbox.UserRegisteredPayload
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("unmarshal user-registered payload: %w", err)
			}
			return pub.PublishUserRegistered(ctx, p.UserID, p.Email, p.Name, p.At)
		}, pol),
		outbox.KindTokenReuseDetected: instrument(outbox.KindTokenReuseDetected, func(ctx context.Context, data []byte) error {
			var p outbox.TokenReuseDetectedPayload
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("unmarshal token-reuse payload: %w", err)
			}
			return pub.PublishTokenReuseDetected(ctx, p.UserID, p.At)
		}, pol),
	}
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		h, ok := handlers[kind]
		if !ok {
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
		return h, nil
	}
}
