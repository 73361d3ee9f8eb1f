// Package cli provides the command-line interface for chatmem.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/chatmem-go/internal/config"
	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/review"
	"github.com/raphaelgruber/chatmem-go/internal/service"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and store
	cfg        config.Config
	convStore  store.Store
	logCleanup func() error

	// Wired services
	conversations *service.ConversationService
	forks         *service.ForkService
	collector     *metrics.Collector

	// Lazy-initialized LLM components
	gateway llm.Gateway
	chatSvc *service.ChatService
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatmem",
	Short: "Conversation memory for an AI chat client",
	Long: `Chatmem stores chat conversations durably, assembles token-budgeted
context windows for model calls, and keeps long conversations usable
through running summaries.

Conversations survive restarts, can be forked into independent copies,
and remember generated SVG and code artifacts across turns.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger := newLogger()

		ctx := context.Background()
		var err error
		convStore, err = openStore(ctx)
		if err != nil {
			return fmt.Errorf("open conversation store: %w", err)
		}

		collector = metrics.NewCollector()
		conversations = service.NewConversationService(convStore, logger, collector, cfg.FetchRetries, cfg.FetchBackoff)
		forks = service.NewForkService(conversations, logger)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer, ok := convStore.(interface{ Close(context.Context) error }); ok {
			if err := closer.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// openStore connects the configured backend. The in-memory backend exists
// for local experiments; it loses everything on exit.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.StoreBackend == config.StoreMemory {
		return store.NewMemory(), nil
	}

	logger := newLogger()
	s, err := store.NewSurreal(ctx, store.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// getChat initializes the model gateway on first use. Commands that never
// invoke a model skip the provider checks entirely.
func getChat() (*service.ChatService, error) {
	if chatSvc != nil {
		return chatSvc, nil
	}

	model, err := llm.NewModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("init model gateway: %w", err)
	}
	gateway = model

	logger := newLogger()
	summarizer := service.NewSummarizer(gateway, cfg.DefaultModel, logger, collector)
	chatSvc = service.NewChatService(conversations, gateway, summarizer, cfg, logger, collector)
	return chatSvc, nil
}

// getReview builds the review collector from the configured allow-list.
func getReview() *review.Collector {
	return review.NewCollector(review.OSGateway{}, cfg.ReviewDirs, newLogger())
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(forkCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reviewCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
