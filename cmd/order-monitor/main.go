package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"purissima/internal/config"
	"purissima/internal/fetch"
	"purissima/internal/logging"
	"purissima/internal/metrics"
	"purissima/internal/monitor"
	"purissima/internal/pipeline"
	"purissima/internal/session"
	"purissima/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("ORDERS_API_URL", cfg.OrdersAPIURL))

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	must(err)
	defer logger.Sync()

	rules, err := config.LoadRules(cfg.ItemRulesPath)
	must(err)
	parser, err := pipeline.NewParserFromRules(rules, logger)
	must(err)

	store, db, closeStore, err := storage.OpenBackend(cfg)
	must(err)
	defer closeStore()

	reg := metrics.NewRegistry()
	sessions := session.NewManager(store, logger)
	svc := pipeline.NewService(fetch.NewClient(cfg, logger, reg), parser, sessions, cfg, reg, logger)

	var meta monitor.MetadataStore
	if db != nil {
		meta = db
	}
	mon := monitor.NewService(svc, cfg, sessions.Create().ID, meta, reg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	must(mon.Run(ctx))

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = server.Shutdown(shutdownCtx)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
