package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/NordCoder/Postboard/internal/obs"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "overall migration timeout")
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "postboard/migrator"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		logger.Fatal("DB_URL is empty")
	}

	goose.SetBaseFS(pg.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := goose.RunContext(ctx, command, db, pg.MigrationsDir, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("command", command))
}
