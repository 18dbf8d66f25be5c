package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	domainkafka "github.com/NordCoder/Postboard/internal/domain/kafka"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestAuthEventsKafka_PublishTokenReuseDetected(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{w: w, topic: "auth-events", log: zap.NewNop()}
	ev := NewAuthEventsKafka(p)

	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ev.PublishTokenReuseDetected(context.Background(), 17, at))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("17"), w.msgs[0].Key)

	var got domainkafka.AuthEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, domainkafka.EventTokenReuseDetected, got.Type)
	assert.Equal(t, int64(17), got.UserID)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestAuthEventsKafka_PublishUserRegistered(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{w: w, topic: "auth-events", log: zap.NewNop()}

	require.NoError(t, NewAuthEventsKafka(p).PublishUserRegistered(context.Background(), 3, "u@x.com", "U", time.Now()))

	var got domainkafka.AuthEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, domainkafka.EventUserRegistered, got.Type)
	assert.Equal(t, "u@x.com", got.Email)
	assert.Equal(t, "U", got.Name)
}

func TestProducer_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{w: &fakeWriter{err: boom}, topic: "t", log: zap.NewNop()}

	err := p.PublishJSON(context.Background(), []byte("k"), map[string]int{"a": 1})
	require.ErrorIs(t, err, boom)
}
