package orchestrator

import (
	"sync"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
	"github.com/nguyentantai21042004/recap-flow/internal/mixer"
	"github.com/nguyentantai21042004/recap-flow/internal/publish"
	"github.com/nguyentantai21042004/recap-flow/internal/recap"
	"github.com/nguyentantai21042004/recap-flow/internal/session"
	"github.com/nguyentantai21042004/recap-flow/internal/track"
	"github.com/nguyentantai21042004/recap-flow/internal/transcribe"
)

type active struct {
	sess    *session.Session
	writer  *track.Writer
	capture Capture
}

type implOrchestrator struct {
	cfg         *config.Config
	registry    *session.Registry
	mixer       mixer.Mixer
	transcriber transcribe.Client
	engine      recap.Engine
	publisher   publish.Publisher
	notifier    *publish.Notifier
	logger      logger.Logger

	mu     sync.Mutex
	active map[string]*active
}

// New creates a new Orchestrator instance
func New(
	cfg *config.Config,
	registry *session.Registry,
	mix mixer.Mixer,
	transcriber transcribe.Client,
	engine recap.Engine,
	publisher publish.Publisher,
	notifier *publish.Notifier,
	log logger.Logger,
) Orchestrator {
	return &implOrchestrator{
		cfg:         cfg,
		registry:    registry,
		mixer:       mix,
		transcriber: transcriber,
		engine:      engine,
		publisher:   publisher,
		notifier:    notifier,
		logger:      log,
		active:      make(map[string]*active),
	}
}
