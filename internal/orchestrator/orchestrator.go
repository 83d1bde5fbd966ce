package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nguyentantai21042004/recap-flow/internal/session"
	"github.com/nguyentantai21042004/recap-flow/internal/track"
	"github.com/nguyentantai21042004/recap-flow/internal/transcribe"
)

// Start accepts a new recording session for the room. The registry acquire
// is the only concurrency gate: while it holds, no second session can start
// for the same room.
func (o *implOrchestrator) Start(ctx context.Context, roomID string, capture Capture) (*session.Session, error) {
	now := time.Now()
	sess := session.New(roomID, "", now)
	sess.Dir = filepath.Join(o.cfg.Paths.Sessions, sess.ID)

	if err := o.registry.Acquire(sess); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(sess.Dir, 0755); err != nil {
		o.registry.Release(roomID)
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	format := track.Format{
		SampleRate: o.cfg.Audio.SampleRate,
		Channels:   o.cfg.Audio.Channels,
		BitDepth:   o.cfg.Audio.BitDepth,
	}

	o.mu.Lock()
	o.active[roomID] = &active{
		sess:    sess,
		writer:  track.NewWriter(sess.Dir, format, o.logger),
		capture: capture,
	}
	o.mu.Unlock()

	o.logger.Info(ctx, "Recording started for room %s (session %s)", roomID, sess.ID)
	return sess, nil
}

// OnAudioFrame appends PCM frames to the participant's track. The first
// frame for a participant opens the track. Frames arriving after the
// session left Recording are dropped.
func (o *implOrchestrator) OnAudioFrame(ctx context.Context, roomID, participantID string, pcm []byte) error {
	o.mu.Lock()
	a, ok := o.active[roomID]
	recording := ok && a.sess.State == session.StateRecording
	o.mu.Unlock()

	if !ok {
		return session.ErrNotFound
	}
	if !recording {
		o.logger.Debug(ctx, "Dropping late frame for room %s", roomID)
		return nil
	}

	if err := a.writer.Append(participantID, pcm); err != nil {
		if !errors.Is(err, track.ErrNotOpen) {
			return err
		}
		// A frame can pass the Recording check while Stop is finalizing the
		// writer; the writer then refuses the reopen and the frame is
		// dropped, same as any other late frame.
		if err := a.writer.Open(participantID); err != nil {
			if errors.Is(err, track.ErrNotOpen) {
				o.logger.Debug(ctx, "Dropping late frame for room %s", roomID)
				return nil
			}
			if !errors.Is(err, track.ErrAlreadyOpen) {
				return err
			}
		}
		if err := a.writer.Append(participantID, pcm); err != nil {
			if errors.Is(err, track.ErrNotOpen) {
				o.logger.Debug(ctx, "Dropping late frame for room %s", roomID)
				return nil
			}
			return err
		}
	}

	if path, err := a.writer.Path(participantID); err == nil {
		a.sess.Tracks[participantID] = path
	}
	return nil
}

// Stop moves the room's session into Stopping and runs the post-capture
// pipeline to a terminal state. Regardless of how the pipeline fares, the
// tracks are finalized, the capture resource is released, and the registry
// entry is evicted.
func (o *implOrchestrator) Stop(ctx context.Context, roomID string) error {
	o.mu.Lock()
	a, ok := o.active[roomID]
	if ok {
		delete(o.active, roomID)
		a.sess.State = session.StateStopping
	}
	o.mu.Unlock()

	if !ok {
		return session.ErrNotFound
	}
	o.logger.Info(ctx, "Session %s -> %s", a.sess.ID, session.StateStopping)

	// Unconditional cleanup: finalize tracks, release the live capture, and
	// (deferred) evict the registry entry. None of these depend on the
	// downstream stages succeeding.
	trackPaths := a.writer.CloseAll(ctx)
	if err := a.capture.Close(); err != nil {
		o.logger.Warn(ctx, "Failed to release capture for room %s: %v", roomID, err)
	}
	defer o.registry.Release(roomID)

	return o.process(ctx, a.sess, trackPaths)
}

// Reprocess runs the post-capture pipeline over a session directory that
// already holds per-participant tracks, e.g. one dropped into the intake
// directory. The directory name must be a valid session id.
func (o *implOrchestrator) Reprocess(ctx context.Context, sessionDir string) error {
	id := filepath.Base(sessionDir)
	if err := session.ValidateID(id); err != nil {
		return err
	}

	trackPaths, err := filepath.Glob(filepath.Join(sessionDir, "user_*.wav"))
	if err != nil {
		return fmt.Errorf("scan session dir: %w", err)
	}
	if len(trackPaths) == 0 {
		return fmt.Errorf("%w: %s", transcribe.ErrNoAudio, id)
	}
	sort.Strings(trackPaths)

	// Reprocessed sessions use their id as the room so the registry still
	// prevents the same drop from being processed twice concurrently.
	sess := session.New(id, sessionDir, time.Now())
	sess.ID = id
	sess.State = session.StateStopping
	if err := o.registry.Acquire(sess); err != nil {
		return err
	}
	defer o.registry.Release(sess.RoomID)

	return o.process(ctx, sess, trackPaths)
}

// process drives the pipeline from Mixing to a terminal state. Every stage
// failure moves the session to Failed and produces a fallback notification;
// nothing here is silently dropped.
func (o *implOrchestrator) process(ctx context.Context, sess *session.Session, trackPaths []string) error {
	o.setState(ctx, sess, session.StateMixing)
	mixPath := filepath.Join(sess.Dir, "merged.wav")
	if err := o.mixer.Mix(ctx, trackPaths, mixPath); err != nil {
		return o.fail(ctx, sess, "mixing", err)
	}
	sess.Artifacts.Mix = mixPath

	o.setState(ctx, sess, session.StateTranscribing)
	result, err := o.transcriber.Transcribe(ctx, sess.ID, mixPath)
	if err != nil {
		return o.fail(ctx, sess, "transcription", err)
	}
	sess.Artifacts.TranscriptJSON = filepath.Join(sess.Dir, filepath.Base(mixPath)+".json")
	sess.Artifacts.TranscriptText = filepath.Join(sess.Dir, "transcript.txt")
	sess.Artifacts.Subtitle = result.SubtitlePath

	o.setState(ctx, sess, session.StateSummarizing)
	recapText := o.engine.Summarize(ctx, result.TranscriptText)

	recapPath := filepath.Join(sess.Dir, "recap.txt")
	if err := os.WriteFile(recapPath, []byte(recapText), 0644); err != nil {
		o.logger.Warn(ctx, "Failed to persist recap for %s: %v", sess.ID, err)
	} else {
		sess.Artifacts.Recap = recapPath
	}
	if o.cfg.Recap.WriteDocx {
		docPath := filepath.Join(sess.Dir, "recap.docx")
		if err := o.engine.WriteDoc(sess.ID, recapText, docPath); err != nil {
			o.logger.Warn(ctx, "Failed to write recap docx for %s: %v", sess.ID, err)
		} else {
			sess.Artifacts.RecapDoc = docPath
		}
	}

	o.setState(ctx, sess, session.StatePublishing)
	if err := o.publisher.Publish(ctx, recapText); err != nil {
		return o.fail(ctx, sess, "publishing", err)
	}
	if result.SubtitlePath != "" {
		if _, err := os.Stat(result.SubtitlePath); err == nil {
			name := sess.ID + "_transcript.srt"
			if err := o.publisher.PublishFile(ctx, result.SubtitlePath, name); err != nil {
				o.logger.Warn(ctx, "Failed to attach subtitle for %s: %v", sess.ID, err)
			}
		}
	}

	o.setState(ctx, sess, session.StateCompleted)
	o.logger.Info(ctx, "Session %s completed", sess.ID)
	return nil
}

func (o *implOrchestrator) setState(ctx context.Context, sess *session.Session, state session.State) {
	sess.State = state
	o.logger.Info(ctx, "Session %s -> %s", sess.ID, state)
}

// fail marks the session Failed and reports it through the fallback channel.
func (o *implOrchestrator) fail(ctx context.Context, sess *session.Session, stage string, err error) error {
	sess.State = session.StateFailed
	o.logger.Error(ctx, "Session %s failed during %s: %v", sess.ID, stage, err)
	o.notifier.Notify(ctx, sess.ID, fmt.Sprintf("%s failed: %v", stage, err))
	return fmt.Errorf("%s: %w", stage, err)
}
