package transcribe

import "context"

// Client submits a mixed session file to the external ASR engine and returns
// structured segments plus the rendered transcript.
type Client interface {
	Transcribe(ctx context.Context, sessionID, mixPath string) (*Result, error)
}

// Segment is one timestamped piece of transcribed speech.
type Segment struct {
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Result bundles the engine output for one session.
type Result struct {
	Segments       []Segment
	TranscriptText string
	SubtitlePath   string
}
