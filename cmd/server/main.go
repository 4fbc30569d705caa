package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/semfind/internal/config"
	"github.com/MereWhiplash/semfind/internal/logging"
	"github.com/MereWhiplash/semfind/internal/resources"
	"github.com/MereWhiplash/semfind/internal/tools"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")

	// Overrides for the most common settings
	storageDriver := flag.String("storage-driver", "", "Storage driver: sqlite, postgres, mongodb")
	dbPath := flag.String("db-path", "", "Path to SQLite database (sqlite driver)")
	provider := flag.String("provider", "", "Embedding provider: onnx, ollama, openai")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")

	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("semfind-server %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *storageDriver != "" {
		cfg.Storage.Driver = *storageDriver
	}
	if *dbPath != "" {
		cfg.Storage.SQLitePath = *dbPath
	}
	if *provider != "" {
		cfg.Embedding.Provider = *provider
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// stdout carries the MCP protocol; logs go to stderr
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := resources.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize resources: %v", err)
	}
	svc := res.Service()
	defer svc.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "semfind",
		Version: version,
	}, nil)

	tools.Register(server, svc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutting down")
		cancel()
	}()

	slog.Info("starting semfind MCP server", "version", version)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
