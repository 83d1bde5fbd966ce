package llm

import (
	"fmt"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

// New creates a Completer for the configured provider.
func New(cfg config.LLMConfig, log logger.Logger) (Completer, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllama(cfg, log), nil
	case "gemini":
		return newGemini(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
