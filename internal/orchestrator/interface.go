package orchestrator

import (
	"context"

	"github.com/nguyentantai21042004/recap-flow/internal/session"
)

// Capture is the live audio resource feeding a session. The orchestrator
// closes it unconditionally when the session stops.
type Capture interface {
	Close() error
}

// Orchestrator drives the full session lifecycle: start, record, stop,
// mix, transcribe, summarize, publish, teardown.
type Orchestrator interface {
	// Start begins recording for a room. It fails with session.ErrConflict
	// while the room has a non-terminal session.
	Start(ctx context.Context, roomID string, capture Capture) (*session.Session, error)

	// OnAudioFrame routes PCM frames to the session's track writer while the
	// session is recording.
	OnAudioFrame(ctx context.Context, roomID, participantID string, pcm []byte) error

	// Stop finalizes the room's session and runs the post-capture pipeline
	// to completion. It reports session.ErrNotFound when nothing is active.
	Stop(ctx context.Context, roomID string) error

	// Reprocess runs the post-capture pipeline over an already-recorded
	// session directory.
	Reprocess(ctx context.Context, sessionDir string) error
}
