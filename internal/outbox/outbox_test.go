package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/NordCoder/Postboard/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu       sync.Mutex
	enqueued []outbox.Message
	batch    []outbox.Message
	pickErr  error
	marked   []string
}

func (f *fakeRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, outbox.Message{IdempotencyKey: key, Kind: kind, Data: data})
	return nil
}

func (f *fakeRepo) PickBatch(context.Context, int, time.Duration) ([]outbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.batch
	f.batch = nil
	return b, f.pickErr
}

func (f *fakeRepo) MarkSuccess(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, keys...)
	return nil
}

type fakeEvents struct {
	mu         sync.Mutex
	registered []int64
	reused     []int64
	failTimes  int
}

func (f *fakeEvents) PublishUserRegistered(_ context.Context, userID int64, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("broker unavailable")
	}
	f.registered = append(f.registered, userID)
	return nil
}

func (f *fakeEvents) PublishTokenReuseDetected(_ context.Context, userID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reused = append(f.reused, userID)
	return nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, Backoff: retry.ExpoJitter{Base: time.Millisecond}}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestEnqueueJSON(t *testing.T) {
	repo := &fakeRepo{}
	require.NoError(t, EnqueueJSON(context.Background(), repo, outbox.KindTokenReuseDetected,
		outbox.TokenReuseDetectedPayload{UserID: 5}))
	require.NoError(t, EnqueueJSON(context.Background(), repo, outbox.KindTokenReuseDetected,
		outbox.TokenReuseDetectedPayload{UserID: 5}))

	require.Len(t, repo.enqueued, 2)
	assert.NotEqual(t, repo.enqueued[0].IdempotencyKey, repo.enqueued[1].IdempotencyKey)
	assert.JSONEq(t, `{"userId":5,"at":"0001-01-01T00:00:00Z"}`, string(repo.enqueued[0].Data))
}

func TestGlobalHandler_Dispatch(t *testing.T) {
	ev := &fakeEvents{failTimes: 1}
	dispatch := MakeGlobalOutboxHandler(ev, fastPolicy())

	h, err := dispatch(outbox.KindUserRegistered)
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), mustJSON(t, outbox.UserRegisteredPayload{UserID: 1})))
	assert.Equal(t, []int64{1}, ev.registered, "transient failure is retried")

	h, err = dispatch(outbox.KindTokenReuseDetected)
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), mustJSON(t, outbox.TokenReuseDetectedPayload{UserID: 2})))
	assert.Equal(t, []int64{2}, ev.reused)

	_, err = dispatch(outbox.Kind(99))
	require.Error(t, err)
}

func TestGlobalHandler_MalformedPayloadNotRetried(t *testing.T) {
	calls := 0
	h := WrapKindHandler(func(_ context.Context, data []byte) error {
		calls++
		var p outbox.UserRegisteredPayload
		return json.Unmarshal(data, &p)
	}, fastPolicy())

	require.Error(t, h(context.Background(), []byte("{")))
	assert.Equal(t, 1, calls)
}

func TestRunner_TickMarksOnlyHandled(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{
		{IdempotencyKey: "ok-1", Kind: outbox.KindTokenReuseDetected, Data: mustJSON(t, outbox.TokenReuseDetectedPayload{UserID: 3})},
		{IdempotencyKey: "bad-kind", Kind: outbox.Kind(42)},
		{IdempotencyKey: "bad-json", Kind: outbox.KindUserRegistered, Data: []byte("nope")},
	}}
	ev := &fakeEvents{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(ev, fastPolicy()), Config{})

	r.tick(context.Background())

	assert.Equal(t, []string{"ok-1"}, repo.marked)
	assert.Equal(t, []int64{3}, ev.reused)
}

func TestRunner_PickErrorIsSwallowed(t *testing.T) {
	repo := &fakeRepo{pickErr: errors.New("db down")}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(&fakeEvents{}, fastPolicy()), Config{})

	r.tick(context.Background())
	assert.Empty(t, repo.marked)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	repo := &fakeRepo{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(&fakeEvents{}, fastPolicy()),
		Config{Workers: 2, WaitTime: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
