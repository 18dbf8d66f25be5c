package kafka

import (
	"context"
	"time"

	domainkafka "github.com/NordCoder/Postboard/internal/domain/kafka"
)

type AuthEventsKafka struct {
	p *Producer
}

func NewAuthEventsKafka(p *Producer) *AuthEventsKafka { return &AuthEventsKafka{p: p} }

var _ domainkafka.AuthEvents = (*AuthEventsKafka)(nil)

// Events are keyed by user id so that one user's events stay ordered.
func (e *AuthEventsKafka) PublishUserRegistered(ctx context.Context, userID int64, email, name string, at time.Time) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(userID), domainkafka.AuthEvent{
		Type:       domainkafka.EventUserRegistered,
		UserID:     userID,
		Email:      email,
		Name:       name,
		OccurredAt: at.UTC(),
	})
}

func (e *AuthEventsKafka) PublishTokenReuseDetected(ctx context.Context, userID int64, at time.Time) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(userID), domainkafka.AuthEvent{
		Type:       domainkafka.EventTokenReuseDetected,
		UserID:     userID,
		OccurredAt: at.UTC(),
	})
}
