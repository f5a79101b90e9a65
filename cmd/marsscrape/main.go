package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/marsscrape/api"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/pipeline"
	"github.com/use-agent/marsscrape/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("marsscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.Driver,
	)

	// ── 3. Open the snapshot store ──────────────────────────────────
	st, err := store.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 4. Wire the pipeline (browsers start per run) ───────────────
	svc := pipeline.NewFromConfig(cfg, st)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Schedule.Interval > 0 {
		slog.Info("scheduled scraping enabled", "interval", cfg.Schedule.Interval)
		go svc.RunEvery(ctx, cfg.Schedule.Interval)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(svc, cfg, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())
	stop()

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// A scheduled run may still be about to write the store, and its
	// webhook may still be retrying. The store closes only after both.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancelDrain()

	if err := svc.Drain(drainCtx); err != nil {
		slog.Warn("abandoning in-flight scrape run", "error", err)
	}

	slog.Info("marsscrape stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
