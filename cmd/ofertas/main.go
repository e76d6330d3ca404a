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

	"github.com/joho/godotenv"

	"github.com/Jmemijeabadi/wallmartofertasmx/api"
	"github.com/Jmemijeabadi/wallmartofertasmx/cache"
	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/extractor"
	"github.com/Jmemijeabadi/wallmartofertasmx/fetcher"
	"github.com/Jmemijeabadi/wallmartofertasmx/normalizer"
	"github.com/Jmemijeabadi/wallmartofertasmx/pipeline"
	"github.com/Jmemijeabadi/wallmartofertasmx/renderer"
)

func main() {
	// ── 1. Load configuration (.env first, then environment) ────────
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("ofertas starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"baseURL", cfg.Site.BaseURL,
	)

	// ── 3. Build the pipeline ───────────────────────────────────────
	f := fetcher.New(cfg.Fetcher, cfg.Site)
	r := renderer.New(cfg.Renderer, cfg.Site)
	defer r.Close()

	ex := extractor.New()
	nm := normalizer.New(cfg.Site)
	cc := cache.New(cfg.Cache.MaxEntries)

	p := pipeline.New(f, r, ex, nm, cc)

	// ── 4. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(p, r, cfg, startTime)

	// ── 5. Start HTTP server ────────────────────────────────────────
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

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// r.Close() runs via defer — drains the page pool and kills Chrome.
	slog.Info("ofertas stopped")
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
