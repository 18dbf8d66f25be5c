package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NordCoder/Postboard/internal/domain"
	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	domainoutbox "github.com/NordCoder/Postboard/internal/domain/outbox"
	"github.com/NordCoder/Postboard/internal/domain/user"
	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/outbox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auth_outcomes_total",
	Help: "Auth operations by outcome.",
}, []string{"op", "outcome"})

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

type Deps struct {
	Users  user.Repo
	Tokens domainauth.RefreshTokenRepo
	Hasher domainauth.Hasher
	Signer domainauth.TokenService
	Tx     Transactor
	Outbox domainoutbox.Repository
	Logger *zap.Logger
	Now    func() time.Time
}

var _ domainauth.Usecase = (*Usecase)(nil)

type Usecase struct {
	users  user.Repo
	rt     domainauth.RefreshTokenRepo
	hasher domainauth.Hasher
	signer domainauth.TokenService
	tx     Transactor
	outbox domainoutbox.Repository
	log    *zap.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewUseCase(d Deps) *Usecase {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Usecase{
		users:  d.Users,
		rt:     d.Tokens,
		hasher: d.Hasher,
		signer: d.Signer,
		tx:     d.Tx,
		outbox: d.Outbox,
		log:    d.Logger.With(zap.String("component", "auth.usecase")),
		now:    d.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Register(ctx context.Context, in domainauth.RegisterInput) (*user.User, error) {
	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	newUser := &user.User{
		Email:    normalizeEmail(in.Email),
		Name:     strings.TrimSpace(in.Name),
		Password: hash,
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, newUser); err != nil {
			return err
		}
		return outbox.EnqueueJSON(ctx, u.outbox, domainoutbox.KindUserRegistered, domainoutbox.UserRegisteredPayload{
			UserID: newUser.ID,
			Email:  newUser.Email,
			Name:   newUser.Name,
			At:     u.now(),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			authOutcomes.WithLabelValues("register", "duplicate").Inc()
			return nil, domainauth.ErrDuplicateEmail
		}
		authOutcomes.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	authOutcomes.WithLabelValues("register", "ok").Inc()
	obs.WithTrace(ctx, u.log).Info("user registered", zap.Int64("user_id", newUser.ID))
	return newUser, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (domainauth.TokenPair, error) {
	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			u.hasher.Compare(password, u.dummy())
			authOutcomes.WithLabelValues("login", "account_not_found").Inc()
			return domainauth.TokenPair{}, domainauth.ErrAccountNotFound
		}
		return domainauth.TokenPair{}, fmt.Errorf("login: %w", err)
	}
	if !u.hasher.Compare(password, rec.Password) {
		authOutcomes.WithLabelValues("login", "incorrect_password").Inc()
		return domainauth.TokenPair{}, domainauth.ErrIncorrectPassword
	}

	pair, err := u.IssueTokenPair(ctx, rec.ID)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	authOutcomes.WithLabelValues("login", "ok").Inc()
	return pair, nil
}

func (u *Usecase) dummy() string {
	u.dummyOnce.Do(func() {
		u.dummyHash, _ = u.hasher.Hash("postboard-dummy-password")
	})
	return u.dummyHash
}

// IssueTokenPair signs both tokens and persists the refresh token with the
// expiry read back from its own claims.
func (u *Usecase) IssueTokenPair(ctx context.Context, userID int64) (domainauth.TokenPair, error) {
	var pair domainauth.TokenPair
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		pair.AccessToken, err = u.signer.SignAccessToken(userID)
		return err
	})
	g.Go(func() error {
		var err error
		pair.RefreshToken, err = u.signer.SignRefreshToken(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("sign tokens: %w", err)
	}

	claims, err := u.signer.VerifyRefreshToken(pair.RefreshToken)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("decode fresh refresh token: %w", err)
	}

	if err := u.rt.Create(ctx, &domainauth.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt,
	}); err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("save refresh token: %w", err)
	}
	return pair, nil
}

// Refresh rotates a refresh token. Consuming the old record and storing the
// new one share a transaction, so a failed issue leaves the old token usable.
func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error) {
	log := obs.WithTrace(ctx, u.log)

	claims, err := u.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		authOutcomes.WithLabelValues("refresh", "invalid").Inc()
		log.Debug("refresh token rejected", zap.Error(err))
		return domainauth.TokenPair{}, fmt.Errorf("%w: %w", domainauth.ErrUnauthorized, domainauth.ErrInvalidOrExpiredToken)
	}

	var pair domainauth.TokenPair
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		rec, err := u.rt.Consume(ctx, refreshToken)
		if err != nil {
			return err
		}
		pair, err = u.IssueTokenPair(ctx, rec.UserID)
		return err
	})
	switch {
	case err == nil:
		authOutcomes.WithLabelValues("refresh", "ok").Inc()
		return pair, nil
	case errors.Is(err, domain.ErrNotFound):
		authOutcomes.WithLabelValues("refresh", "reuse").Inc()
		log.Warn("refresh token reuse detected", zap.Int64("user_id", claims.UserID), zap.String("jti", claims.TokenID))
		u.reportReuse(ctx, claims.UserID)
		return domainauth.TokenPair{}, fmt.Errorf("%w: %w", domainauth.ErrUnauthorized, domainauth.ErrTokenReuseDetected)
	default:
		authOutcomes.WithLabelValues("refresh", "error").Inc()
		log.Error("refresh rotation failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return domainauth.TokenPair{}, domainauth.ErrUnauthorized
	}
}

func (u *Usecase) reportReuse(ctx context.Context, userID int64) {
	err := outbox.EnqueueJSON(ctx, u.outbox, domainoutbox.KindTokenReuseDetected, domainoutbox.TokenReuseDetectedPayload{
		UserID: userID,
		At:     u.now(),
	})
	if err != nil {
		obs.WithTrace(ctx, u.log).Error("enqueue reuse event", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Logout forgets the refresh token. Unknown or invalid tokens are ignored.
func (u *Usecase) Logout(ctx context.Context, refreshToken string) error {
	if _, err := u.signer.VerifyRefreshToken(refreshToken); err != nil {
		return nil
	}
	if err := u.rt.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (u *Usecase) Me(ctx context.Context, userID int64) (*user.User, error) {
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domainauth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	return rec, nil
}
