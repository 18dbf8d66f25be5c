package kafka

import (
	"context"
	"time"
)

const (
	EventUserRegistered     = "user.registered"
	EventTokenReuseDetected = "token.reuse_detected"
)

// AuthEvent is the JSON value written to the auth events topic.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type AuthEvents interface {
	PublishUserRegistered(ctx context.Context, userID int64, email, name string, at time.Time) error
	PublishTokenReuseDetected(ctx context.Context, userID int64, at time.Time) error
}
