package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/google/uuid"
)

// EnqueueJSON stores payload under a fresh idempotency key.
func EnqueueJSON(ctx context.Context, repo outbox.Repository, kind outbox.Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return repo.Enqueue(ctx, uuid.NewString(), kind, data)
}
