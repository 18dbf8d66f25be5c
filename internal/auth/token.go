package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrBadTokenConfig = errors.New("bad token config")

var _ domainauth.TokenService = (*JWTService)(nil)

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Now           func() time.Time
}

type JWTService struct {
	cfg TokenConfig
}

func NewTokenService(cfg TokenConfig) (*JWTService, error) {
	switch {
	case len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0:
		return nil, fmt.Errorf("%w: empty secret", ErrBadTokenConfig)
	case string(cfg.AccessSecret) == string(cfg.RefreshSecret):
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrBadTokenConfig)
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, fmt.Errorf("%w: ttl must be positive", ErrBadTokenConfig)
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &JWTService{cfg: cfg}, nil
}

func (s *JWTService) SignAccessToken(userID int64) (string, error) {
	return s.sign(userID, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

func (s *JWTService) SignRefreshToken(userID int64) (string, error) {
	return s.sign(userID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

func (s *JWTService) VerifyAccessToken(token string) (*domainauth.Claims, error) {
	return s.verify(token, s.cfg.AccessSecret)
}

func (s *JWTService) VerifyRefreshToken(token string) (*domainauth.Claims, error) {
	return s.verify(token, s.cfg.RefreshSecret)
}

func (s *JWTService) sign(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := s.cfg.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) verify(token string, secret []byte) (*domainauth.Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domainauth.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", domainauth.ErrTokenInvalid, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject", domainauth.ErrTokenInvalid)
	}

	out := &domainauth.Claims{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
