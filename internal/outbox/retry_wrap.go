package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/NordCoder/Postboard/internal/obs/retry"
)

// WrapKindHandler retries h per p; malformed payloads are not retried.
func WrapKindHandler(h outbox.KindHandler, p retry.Policy) outbox.KindHandler {
	if p.Retryable == nil {
		p.Retryable = func(err error) bool {
			var syn *json.SyntaxError
			var typ *json.UnmarshalTypeError
			return !errors.As(err, &syn) && !errors.As(err, &typ) &&
				!errors.Is(err, context.Canceled)
		}
	}
	return func(ctx context.Context, data []byte) error {
		return retry.Do(ctx, func() error { return h(ctx, data) }, p)
	}
}
