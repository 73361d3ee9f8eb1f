// Package main provides the entry point for the chatmemd MCP server, the
// stdio backend a desktop chat shell talks to.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/chatmem-go/internal/config"
	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/review"
	"github.com/raphaelgruber/chatmem-go/internal/server"
	"github.com/raphaelgruber/chatmem-go/internal/service"
	"github.com/raphaelgruber/chatmem-go/internal/store"
	"github.com/raphaelgruber/chatmem-go/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("chatmemd starting",
		"version", version,
		"store", cfg.StoreBackend,
		"provider", cfg.LLMProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the conversation store
	var convStore store.Store
	if cfg.StoreBackend == config.StoreMemory {
		convStore = store.NewMemory()
	} else {
		surreal, err := store.NewSurreal(ctx, store.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("closing store connection")
			_ = surreal.Close(ctx)
		}()

		if err := surreal.InitSchema(ctx); err != nil {
			logger.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		convStore = surreal
	}

	// Model gateway
	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create model gateway", "error", err)
		os.Exit(1)
	}
	logger.Info("model gateway initialized", "provider", model.Name())

	// Wire services
	collector := metrics.NewCollector()
	conversations := service.NewConversationService(convStore, logger, collector, cfg.FetchRetries, cfg.FetchBackoff)
	summarizer := service.NewSummarizer(model, cfg.DefaultModel, logger, collector)
	chat := service.NewChatService(conversations, model, summarizer, cfg, logger, collector)
	forks := service.NewForkService(conversations, logger)
	reviewer := review.NewCollector(review.OSGateway{}, cfg.ReviewDirs, logger)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	deps := &tools.Dependencies{
		Conversations: conversations,
		Chat:          chat,
		Fork:          forks,
		Review:        reviewer,
		Logger:        logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
