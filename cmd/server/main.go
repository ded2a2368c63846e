package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tripmate/tripledger/internal/auth"
	"github.com/tripmate/tripledger/internal/config"
	"github.com/tripmate/tripledger/internal/ledger"
	"github.com/tripmate/tripledger/internal/notify"
	"github.com/tripmate/tripledger/internal/server"
	"github.com/tripmate/tripledger/internal/storage"
	"github.com/tripmate/tripledger/internal/storage/sample"
	"github.com/tripmate/tripledger/internal/storage/sqlite"
	"github.com/tripmate/tripledger/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	var store storage.Store
	switch cfg.SourceMode {
	case config.SourceSample:
		store = sample.New()
		slog.Info("Storage initialized", "source", "sample", "trip", sample.DemoTripID)
	default:
		store, err = sqlite.New(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
		slog.Info("Storage initialized", "source", "sqlite", "database", cfg.DBPath)
	}
	defer store.Close()

	bus := notify.NewBus()
	adapter := ledger.NewAdapter(store, cfg.BaseCurrency, bus)
	defer adapter.Close()

	ldg := ledger.New(store, adapter, bus, cfg.BaseCurrency)

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	} else {
		slog.Warn("JWT_SECRET not set, viewer identity from request parameters only")
	}

	srv := server.New(ldg, jwtManager)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Ledger server starting", "address", addr, "base_currency", cfg.BaseCurrency)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
