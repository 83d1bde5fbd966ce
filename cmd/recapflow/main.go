package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/llm"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
	"github.com/nguyentantai21042004/recap-flow/internal/mixer"
	"github.com/nguyentantai21042004/recap-flow/internal/orchestrator"
	"github.com/nguyentantai21042004/recap-flow/internal/publish"
	"github.com/nguyentantai21042004/recap-flow/internal/recap"
	"github.com/nguyentantai21042004/recap-flow/internal/session"
	"github.com/nguyentantai21042004/recap-flow/internal/transcribe"
	"github.com/nguyentantai21042004/recap-flow/internal/watcher"
	"github.com/nguyentantai21042004/recap-flow/pkg/executor"
)

func main() {
	ctx := context.Background()

	// Optional .env for webhook URL and API keys
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Session Recap Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Sessions dir: %s", cfg.Paths.Sessions)
	log.Info(ctx, "Intake dir: %s", cfg.Paths.Intake)
	log.Info(ctx, "ASR engine: %s (%s)", cfg.ASR.BinaryPath, cfg.ASR.Model)
	log.Info(ctx, "LLM provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)
	log.Info(ctx, "Configuration loaded successfully")

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	// Initialize dependencies
	exec := executor.New()
	mix := mixer.New(cfg.Mixer, cfg.Audio, exec, log)
	transcriber := transcribe.New(cfg.ASR, cfg.Paths.Sessions, exec, log)

	completer, err := llm.New(cfg.LLM, log)
	if err != nil {
		log.Error(ctx, "Failed to create LLM client: %v", err)
		os.Exit(1)
	}
	engine, err := recap.New(cfg.Recap, completer, cfg.Paths.Prompt, log)
	if err != nil {
		log.Error(ctx, "Failed to create recap engine: %v", err)
		os.Exit(1)
	}

	publisher := publish.New(cfg.Publish, log)
	notifier := publish.NewNotifier(publisher, log)
	registry := session.NewRegistry()

	orch := orchestrator.New(cfg, registry, mix, transcriber, engine, publisher, notifier, log)

	// Create watcher that reprocesses dropped session directories
	w, err := watcher.New(cfg.Paths.Intake, orch.Reprocess, log, cfg.Performance.MaxConcurrent)
	if err != nil {
		log.Error(ctx, "Failed to create watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start watcher in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Recap pipeline is ready!")
	log.Info(ctx, "Drop finished session directories into: %s", cfg.Paths.Intake)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Watcher error: %v", err)
	}

	// Graceful shutdown
	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	log.Info(ctx, "Recap pipeline stopped")
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Sessions,
		cfg.Paths.Intake,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
