package main

import (
	"context"
	"net/http"
	"time"

	"github.com/NordCoder/Postboard/internal/auth"
	config "github.com/NordCoder/Postboard/internal/config/api"
	"github.com/NordCoder/Postboard/internal/ratelimit"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	"github.com/NordCoder/Postboard/internal/services/api"
	authsvc "github.com/NordCoder/Postboard/internal/services/api/auth"
	postsvc "github.com/NordCoder/Postboard/internal/services/api/post"
	"go.uber.org/zap"
)

type services struct {
	handler http.Handler
	janitor *authsvc.Janitor
}

func buildServices(cfg *config.Config, logger *zap.Logger, db *pg.DB, limiter ratelimit.Limiter) (*services, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.AsTokenConfig())
	if err != nil {
		return nil, err
	}

	rtRepo := pg.NewRefreshTokenRepo(db)
	authUC := authsvc.NewUseCase(authsvc.Deps{
		Users:  pg.NewUserRepo(db),
		Tokens: rtRepo,
		Hasher: auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Signer: tokens,
		Tx:     pg.NewTransactor(db, logger),
		Outbox: pg.NewOutboxRepo(db),
		Logger: logger,
	})
	postUC := postsvc.NewUseCase(pg.NewPostRepo(db), logger)

	if cfg.Auth.APIKey == "" {
		logger.Warn("auth.api_key is empty, operator access disabled")
	}

	h := api.NewRouter(api.RouterDeps{
		Auth:     authsvc.NewController(authUC, logger),
		Posts:    postsvc.NewController(postUC, logger),
		Verifier: tokens,
		APIKey:   cfg.Auth.APIKey,
		Limiter:  limiter,
		Health:   db.Ping,
		Logger:   logger,
	})

	return &services{
		handler: h,
		janitor: authsvc.NewJanitor(rtRepo, cfg.Auth.JanitorInterval, logger),
	}, nil
}

func buildHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           h,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(ctx context.Context, srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		return err
	}
	return ctx.Err()
}
