package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/recap-flow/internal/session"
)

var (
	// ErrNoAudio is returned when the session has no mixed audio to transcribe.
	ErrNoAudio = errors.New("no audio for session")
	// ErrMalformedOutput is returned when the engine result cannot be parsed
	// into segments.
	ErrMalformedOutput = errors.New("malformed engine output")
)

// transcriptCap bounds the text handed downstream so a marathon session
// cannot blow up the summarization prompts. The on-disk transcript is full
// length.
const transcriptCap = 200000

// engineOutput is the strict schema accepted from the ASR engine. Anything
// that does not decode into it is rejected at this boundary.
type engineOutput struct {
	Segments []Segment `json:"segments"`
}

// Transcribe runs the ASR engine over the session's mixed file, writes the
// transcript artifacts into the session directory, and returns the parsed
// segments. The session id is validated before any path is built from it.
func (c *implClient) Transcribe(ctx context.Context, sessionID, mixPath string) (*Result, error) {
	if err := session.ValidateID(sessionID); err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(c.sessionsDir, sessionID)
	if _, err := os.Stat(sessionDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAudio, sessionID)
	}
	if _, err := os.Stat(mixPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAudio, sessionID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout.Std())
	defer cancel()

	c.logger.Info(ctx, "Transcribing session %s (model %s, device %s)", sessionID, c.cfg.Model, c.cfg.Device)

	args := []string{
		"transcribe", mixPath,
		"--model", c.cfg.Model,
		"--output_format", "json",
		"--output_dir", sessionDir,
		"--device", c.cfg.Device,
	}
	if _, err := c.executor.Execute(ctx, c.cfg.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("asr engine: %w", err)
	}

	jsonPath := filepath.Join(sessionDir, filepath.Base(mixPath)+".json")

	// Alignment refines segment timings in place. Best-effort: the raw
	// timings are still usable when it fails.
	alignArgs := []string{
		"align", jsonPath, mixPath,
		"--output_dir", sessionDir,
		"--device", c.cfg.Device,
	}
	if _, err := c.executor.Execute(ctx, c.cfg.BinaryPath, alignArgs...); err != nil {
		c.logger.Warn(ctx, "Alignment failed for %s: %v", sessionID, err)
	}

	out, err := c.parseOutput(jsonPath)
	if err != nil {
		return nil, err
	}

	text := RenderTranscript(out.Segments)
	if err := os.WriteFile(filepath.Join(sessionDir, "transcript.txt"), []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	if len(text) > transcriptCap {
		text = text[:transcriptCap]
	}

	result := &Result{
		Segments:       out.Segments,
		TranscriptText: text,
	}

	// Subtitle export is best-effort; a recap without an SRT attachment is
	// still a recap.
	srtPath := filepath.Join(sessionDir, "transcript.srt")
	if _, err := c.executor.Execute(ctx, c.cfg.BinaryPath, "to_srt", jsonPath, "--output", srtPath); err != nil {
		c.logger.Warn(ctx, "Subtitle export failed for %s: %v", sessionID, err)
	} else if _, err := os.Stat(srtPath); err == nil {
		result.SubtitlePath = srtPath
	}

	c.logger.Info(ctx, "Transcription complete: %d segments", len(out.Segments))
	return result, nil
}

func (c *implClient) parseOutput(jsonPath string) (*engineOutput, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformedOutput, filepath.Base(jsonPath), err)
	}

	var out engineOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return &out, nil
}

// RenderTranscript renders segments one per line, "speaker: text" when a
// speaker label is present, else the bare text. Downstream chunking relies
// on this exact shape.
func RenderTranscript(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if seg.Speaker != "" {
			lines = append(lines, seg.Speaker+": "+text)
		} else {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
