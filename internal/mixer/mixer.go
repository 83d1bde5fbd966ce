package mixer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
	"github.com/nguyentantai21042004/recap-flow/pkg/executor"
)

// ErrNoTracks is returned when Mix is called with zero input tracks.
var ErrNoTracks = errors.New("no tracks to mix")

// Mixer combines per-participant tracks into one normalized file for
// transcription.
type Mixer interface {
	Mix(ctx context.Context, trackPaths []string, outPath string) error
}

type implMixer struct {
	cfg      config.MixerConfig
	audio    config.AudioConfig
	executor executor.Executor
	logger   logger.Logger
}

// New creates a new Mixer instance
func New(cfg config.MixerConfig, audio config.AudioConfig, exec executor.Executor, log logger.Logger) Mixer {
	return &implMixer{
		cfg:      cfg,
		audio:    audio,
		executor: exec,
		logger:   log,
	}
}

// Mix normalizes and sums all input tracks into a single output at the
// configured sample rate and channel count. amix's normalize pass keeps one
// loud participant from dominating the mix. The result is a pure function of
// the inputs; the only side effect is the output file.
func (m *implMixer) Mix(ctx context.Context, trackPaths []string, outPath string) error {
	if len(trackPaths) == 0 {
		return ErrNoTracks
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout.Std())
	defer cancel()

	m.logger.Info(ctx, "Mixing %d tracks into %s", len(trackPaths), outPath)

	// FFmpeg arguments for the downmix
	// -i per track, then amix sums all inputs with loudness normalization
	// -ac / -ar: fixed target channel count and sample rate
	// -y: overwrite output file if exists
	var args []string
	for _, p := range trackPaths {
		args = append(args, "-i", p)
	}
	args = append(args,
		"-filter_complex", fmt.Sprintf("amix=inputs=%d:normalize=1", len(trackPaths)),
		"-ac", strconv.Itoa(m.audio.Channels),
		"-ar", strconv.Itoa(m.audio.SampleRate),
		"-y",
		outPath,
	)

	if _, err := m.executor.Execute(ctx, m.cfg.BinaryPath, args...); err != nil {
		return fmt.Errorf("ffmpeg amix: %w", err)
	}

	m.logger.Info(ctx, "Mix complete: %s", outPath)
	return nil
}
