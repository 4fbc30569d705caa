// cmd/shim/main.go
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/semfind/internal/client"
	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/logging"
	"github.com/MereWhiplash/semfind/internal/shim"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	apiURL := flag.String("api-url", "", "semfind API URL (overrides server.api_url)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *apiURL != "" {
		cfg.Server.APIURL = *apiURL
	}
	if cfg.Server.APIURL == "" {
		log.Fatal("API URL required: use --api-url, server.api_url or SEMFIND_API_URL")
	}

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiClient := client.New(cfg.Server.APIURL)
	if err := apiClient.Health(ctx); err != nil {
		slog.Warn("API not reachable yet", "url", cfg.Server.APIURL, "err", err)
	}

	handler := shim.NewHandler(apiClient)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "semfind",
		Version: "1.0.0",
	}, nil)

	shim.Register(server, handler)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutting down")
		cancel()
	}()

	slog.Info("starting semfind shim", "api_url", cfg.Server.APIURL)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
