package session

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrConflict is returned when a room already has a non-terminal session.
	ErrConflict = errors.New("session already active for room")
	// ErrNotFound is returned when no session exists for a room.
	ErrNotFound = errors.New("no active session for room")
	// ErrInvalidID is returned for session ids that fail validation.
	ErrInvalidID = errors.New("invalid session id")
)

// State represents the lifecycle stage of a session.
type State string

const (
	StateRecording    State = "recording"
	StateStopping     State = "stopping"
	StateMixing       State = "mixing"
	StateTranscribing State = "transcribing"
	StateSummarizing  State = "summarizing"
	StatePublishing   State = "publishing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Terminal reports whether the state is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Artifacts holds the on-disk outputs produced as the pipeline advances.
// Paths are empty until the producing stage completes.
type Artifacts struct {
	Mix            string
	TranscriptJSON string
	TranscriptText string
	Subtitle       string
	Recap          string
	RecapDoc       string
}

// Session is one recording-to-recap run for a room.
type Session struct {
	ID        string
	RoomID    string
	State     State
	Dir       string
	Tracks    map[string]string // participant id -> track file path
	Artifacts Artifacts
	StartedAt time.Time
}

// idPattern is the only shape of session id that may reach the filesystem.
// Anything else is rejected before a path is built from it.
var idPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// NewID derives a session id from the creation time.
func NewID(t time.Time) string {
	return t.Format("20060102_150405")
}

// ValidateID checks that id matches the fixed date/time token format.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// New creates a session in the Recording state.
func New(roomID, dir string, now time.Time) *Session {
	return &Session{
		ID:        NewID(now),
		RoomID:    roomID,
		State:     StateRecording,
		Dir:       dir,
		Tracks:    make(map[string]string),
		StartedAt: now,
	}
}
