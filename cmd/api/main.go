// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MereWhiplash/semfind/internal/api"
	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/logging"
	"github.com/MereWhiplash/semfind/internal/resources"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Server address (overrides server.addr)")
	storageDriver := flag.String("storage-driver", "", "Storage driver: sqlite, postgres, mongodb")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *storageDriver != "" {
		cfg.Storage.Driver = *storageDriver
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	logger := slog.Default().With("component", "api")

	ctx := context.Background()

	res, err := resources.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize resources: %v", err)
	}
	svc := res.Service()
	defer svc.Close()

	handlers := api.NewHandlers(svc)

	// Health verifies storage connectivity
	handlers.SetHealthCheck(func(ctx context.Context) error {
		_, err := svc.Count(ctx)
		return err
	})

	r := api.NewRouter(handlers, logger, cfg.Server.WriteTimeout)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "err", err)
		}

		close(done)
	}()

	logger.Info("starting API server", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		svc.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
