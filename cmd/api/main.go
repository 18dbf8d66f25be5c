package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Postboard/internal/config/api"
	"github.com/NordCoder/Postboard/internal/obs/retry"
	"github.com/NordCoder/Postboard/internal/outbox"
	kafkax "github.com/NordCoder/Postboard/internal/repository/kafka"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const authEventsPartitions = 3

func main() {
	configPath := flag.String("config", os.Getenv("POSTBOARD_CONFIG"), "path to api.yaml")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	limiter, local, closeLimiter := initLimiter(rootCtx, cfg, logger)
	defer closeLimiter()

	svc, err := buildServices(cfg, logger, db, limiter)
	if err != nil {
		logger.Fatal("build services", zap.Error(err))
	}

	producer := kafkax.BootstrapProducer(rootCtx, cfg.Kafka, authEventsPartitions, logger)
	defer func() { _ = producer.Close() }()

	runner := outbox.NewOutboxRunner(
		logger,
		pg.NewOutboxRepo(db),
		outbox.MakeGlobalOutboxHandler(
			kafkax.NewAuthEventsKafka(producer),
			retry.DefaultPublishPolicy(logger, 5, 200*time.Millisecond, 5*time.Second),
		),
		cfg.Outbox,
	)

	httpSrv := buildHTTPServer(cfg, svc.handler)

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error { return serveHTTP(ctx, httpSrv, cfg, logger) })
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return svc.janitor.Run(ctx) })
	if local != nil {
		g.Go(func() error {
			local.RunSweeper(ctx, cfg.RateLimit.Window)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("bye")
}
