package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agentaudit/internal/analyzer"
	"agentaudit/internal/api"
	"agentaudit/internal/config"
	"agentaudit/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to audit service configuration")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := analyzer.BuildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.DB.Driver != "" && cfg.DB.DSN != "" {
		sqlStore, err := storage.NewSQLStore(cfg.DB)
		if err != nil {
			log.Fatalf("failed to initialise store: %v", err)
		}
		store = sqlStore
	} else {
		logger.Warn("no database configured, using in-memory store")
		store = storage.NewMemoryStore()
	}
	defer store.Close()

	an, err := analyzer.FromConfig(*cfg, store, logger)
	if err != nil {
		log.Fatalf("failed to initialise analyzer: %v", err)
	}

	listenAddr := cfg.Server.Addr
	if *addr != "" {
		listenAddr = *addr
	}

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: api.NewServer(an, store, logger),
	}

	go func() {
		<-ctx.Done()
		timeout := cfg.Server.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("audit api listening", "addr", listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("audit api stopped")
}
