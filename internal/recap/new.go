package recap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/llm"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

// fallbackPrompt is used when the configured prompt file is unreadable.
const fallbackPrompt = "Summarize this game session."

type implEngine struct {
	cfg       config.RecapConfig
	completer llm.Completer
	prompt    string
	logger    logger.Logger
}

// New creates a new Engine instance. The chunk size must be positive; that
// is the one programmer error this package refuses at construction rather
// than containing at runtime.
func New(cfg config.RecapConfig, completer llm.Completer, promptPath string, log logger.Logger) (Engine, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}

	prompt := fallbackPrompt
	if data, err := os.ReadFile(promptPath); err == nil {
		if p := strings.TrimSpace(string(data)); p != "" {
			prompt = p
		}
	} else {
		log.Warn(context.Background(), "Prompt file %s unreadable, using fallback: %v", promptPath, err)
	}

	return &implEngine{
		cfg:       cfg,
		completer: completer,
		prompt:    prompt,
		logger:    log,
	}, nil
}
