package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Postboard/internal/config/security-notifier"
	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/repository/kafka"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	notifier "github.com/NordCoder/Postboard/internal/services/security-notifier"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("POSTBOARD_NOTIFIER_CONFIG"), "path to security-notifier.yaml")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, App: "postboard/security-notifier"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting security-notifier",
		zap.Strings("brokers", cfg.In.Brokers),
		zap.String("topic", cfg.In.Topic),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("smtp_addr", cfg.SMTP.Addr),
	)

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	} else {
		defer func() { _ = otelCloser.Shutdown(context.Background()) }()
	}

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, l)

	cfg.In.Logger = l
	cons := kafka.BootstrapConsumer(rootCtx, &cfg.In, l)
	defer func() { _ = cons.Close() }()

	runner := notifier.NewRunner(l, cons, &notifier.Handler{
		Users:    pg.NewUserRepo(db),
		Sessions: pg.NewRefreshTokenRepo(db),
		Out:      notifier.NewMailer(cfg.SMTP, l),
		Log:      l,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(rootCtx) }()

	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
