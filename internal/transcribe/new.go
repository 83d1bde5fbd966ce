package transcribe

import (
	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
	"github.com/nguyentantai21042004/recap-flow/pkg/executor"
)

type implClient struct {
	cfg         config.ASRConfig
	sessionsDir string
	executor    executor.Executor
	logger      logger.Logger
}

// New creates a new Client instance
func New(cfg config.ASRConfig, sessionsDir string, exec executor.Executor, log logger.Logger) Client {
	return &implClient{
		cfg:         cfg,
		sessionsDir: sessionsDir,
		executor:    exec,
		logger:      log,
	}
}
