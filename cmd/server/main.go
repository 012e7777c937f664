package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aguaops/ptar-inventory/internal/config"
	"github.com/aguaops/ptar-inventory/internal/domain/inuse"
	"github.com/aguaops/ptar-inventory/internal/domain/loans"
	"github.com/aguaops/ptar-inventory/internal/domain/materials"
	"github.com/aguaops/ptar-inventory/internal/domain/movements"
	"github.com/aguaops/ptar-inventory/internal/domain/stats"
	"github.com/aguaops/ptar-inventory/internal/infra/db"
	httpx "github.com/aguaops/ptar-inventory/internal/infra/http"
	"github.com/aguaops/ptar-inventory/internal/infra/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	mats := materials.NewRepo(pool)
	movs := movements.NewRepo(pool, mats)
	lns := loans.NewRepo(pool, mats)
	allocs := inuse.NewRepo(pool, mats)
	st := stats.NewRepo(pool)

	h := httpx.NewHandlers(mats, movs, lns, allocs, st, log)
	srv := httpx.New(cfg.HTTP.Addr, h, log, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
