// Package main is the entry point for the prediction market API server. It
// wires together the engine, its Store/PaymentOracle/Broadcaster
// collaborators, the WebSocket hub, the background sweep scheduler, and
// starts the HTTP server.
package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/evetabi/prediction/internal/api"
	"github.com/evetabi/prediction/internal/config"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/oracle"
	"github.com/evetabi/prediction/internal/repository/pgstore"
	"github.com/evetabi/prediction/internal/scheduler"
	"github.com/evetabi/prediction/internal/ws"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// ── 1. Config + logger ─────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		out := io.Writer(os.Stdout)
		if cfg.Log.FilePath != "" {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.Log.FilePath,
				MaxSize:    cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAgeDays,
				Compress:   cfg.Log.Compress,
			})
		}
		logHandler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting prediction market server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("pgx", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Store, oracle, verifier ────────────────────────────────────────────
	store := pgstore.New(db)
	paymentOracle := oracle.NewLnbits(cfg.Oracle)
	verifier := engine.Secp256k1Verifier{}

	// ── 4. WebSocket hub ───────────────────────────────────────────────────────
	var allowedOrigins []string
	for _, o := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}
	hub := ws.NewHub(allowedOrigins, []byte(cfg.Server.WSJWTSecret))

	// ── 5. Engine ──────────────────────────────────────────────────────────────
	eng := engine.New(store, paymentOracle, verifier,
		engine.WithLogger(logger),
		engine.WithBroadcaster(ws.EngineBroadcaster{Hub: hub}),
	)

	// ── 6. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 7. Start WS hub ────────────────────────────────────────────────────────
	go hub.Run()
	logger.Info("websocket hub started")

	// ── 8. Sweep scheduler ─────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(eng, logger)
	sched.Start(ctx)

	// ── 9. HTTP router ─────────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		Engine: eng,
		Hub:    hub,
		Cfg:    cfg,
		Log:    logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 10. Start server ───────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 11. Graceful shutdown ──────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}
