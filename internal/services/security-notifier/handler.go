package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Postboard/internal/domain"
	domainkafka "github.com/NordCoder/Postboard/internal/domain/kafka"
	"github.com/NordCoder/Postboard/internal/domain/user"
	"github.com/NordCoder/Postboard/internal/obs"
	"go.uber.org/zap"
)

// ErrUnknownEvent marks events this service does not react to.
var ErrUnknownEvent = errors.New("unknown event type")

// SessionRevoker drops every refresh token of a user.
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type Handler struct {
	Users    user.Repo
	Sessions SessionRevoker
	Out      EmailSender
	Log      *zap.Logger
}

func (h *Handler) HandleEvent(ctx context.Context, ev domainkafka.AuthEvent) error {
	if ev.UserID <= 0 {
		return fmt.Errorf("%w: bad user id %d", ErrUnknownEvent, ev.UserID)
	}
	switch ev.Type {
	case domainkafka.EventTokenReuseDetected:
		return h.handleReuse(ctx, ev)
	case domainkafka.EventUserRegistered:
		return h.handleRegistered(ctx, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// A reused refresh token means the token family leaked: every session of
// the user is revoked before anyone is told.
func (h *Handler) handleReuse(ctx context.Context, ev domainkafka.AuthEvent) error {
	log := obs.WithTrace(ctx, h.Log).With(zap.Int64("user_id", ev.UserID))

	n, err := h.Sessions.DeleteByUser(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	log.Warn("sessions revoked after refresh token reuse", zap.Int64("revoked", n))

	u, err := h.Users.GetByID(ctx, ev.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("user gone, alert skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nAn already used sign-in token for your account was presented at %s.\n"+
			"All of your sessions have been signed out. Sign in again, and change your password if this was not you.\n\nPostboard",
		u.Name, ev.OccurredAt.UTC().Format(time.RFC3339),
	)
	if err := h.Out.Send(ctx, u.Email, "Security alert: you were signed out", body); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

func (h *Handler) handleRegistered(ctx context.Context, ev domainkafka.AuthEvent) error {
	email, name := ev.Email, ev.Name
	if email == "" {
		u, err := h.Users.GetByID(ctx, ev.UserID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		email, name = u.Email, u.Name
	}
	body := fmt.Sprintf("Hello %s,\n\nWelcome to Postboard. Your account is ready.\n\nPostboard", name)
	if err := h.Out.Send(ctx, email, "Welcome to Postboard", body); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}
