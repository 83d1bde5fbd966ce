package track

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

var (
	// ErrAlreadyOpen is returned when a track is opened twice for the same participant.
	ErrAlreadyOpen = errors.New("track already open for participant")
	// ErrNotOpen is returned when appending to a participant with no open track.
	ErrNotOpen = errors.New("no open track for participant")
)

var participantPattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Format describes the PCM container written for every track. It must match
// what the mixer expects as input.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is 48 kHz stereo 16-bit, the capture channel's native format.
var DefaultFormat = Format{SampleRate: 48000, Channels: 2, BitDepth: 16}

// Writer persists one append-only WAV track per participant for a session.
// Appends for the same participant are serialized; appends across
// participants proceed concurrently.
type Writer struct {
	dir    string
	format Format
	logger logger.Logger

	mu        sync.Mutex
	tracks    map[string]*track
	finalized bool
}

type track struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	dataLen uint32
	closed  bool
}

// NewWriter creates a Writer that stores tracks inside dir.
func NewWriter(dir string, format Format, log logger.Logger) *Writer {
	if format.SampleRate == 0 {
		format = DefaultFormat
	}
	return &Writer{
		dir:    dir,
		format: format,
		logger: log,
		tracks: make(map[string]*track),
	}
}

// Open creates a new persisted track for participantID. Once CloseAll has
// run the writer is finalized and refuses new tracks: a frame racing the
// stop must not truncate audio that is already being read.
func (w *Writer) Open(participantID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finalized {
		return fmt.Errorf("%w: %s", ErrNotOpen, participantID)
	}
	if _, ok := w.tracks[participantID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, participantID)
	}

	path := w.trackPath(participantID)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create track file: %w", err)
	}

	tr := &track{file: f, path: path}
	if err := tr.writeHeader(w.format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write track header: %w", err)
	}

	w.tracks[participantID] = tr
	return nil
}

// Append writes PCM frames to the participant's track.
func (w *Writer) Append(participantID string, pcm []byte) error {
	w.mu.Lock()
	tr, ok := w.tracks[participantID]
	w.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, participantID)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.closed {
		return fmt.Errorf("%w: %s", ErrNotOpen, participantID)
	}
	if _, err := tr.file.Write(pcm); err != nil {
		return fmt.Errorf("append to track: %w", err)
	}
	tr.dataLen += uint32(len(pcm))
	return nil
}

// Path returns the on-disk path of the participant's track.
func (w *Writer) Path(participantID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tr, ok := w.tracks[participantID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotOpen, participantID)
	}
	return tr.path, nil
}

// CloseAll finalizes every open track. A per-track close failure is logged
// and skipped so the remaining tracks still finalize. The returned paths are
// the successfully closed tracks, sorted by filename so the mix input order
// is deterministic.
func (w *Writer) CloseAll(ctx context.Context) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for id, tr := range w.tracks {
		tr.mu.Lock()
		err := tr.finalize()
		tr.mu.Unlock()
		if err != nil {
			w.logger.Warn(ctx, "Failed to finalize track for %s: %v", id, err)
			continue
		}
		paths = append(paths, tr.path)
	}
	w.tracks = make(map[string]*track)
	w.finalized = true

	sort.Strings(paths)
	return paths
}

// trackPath builds the on-disk filename for a participant. Sanitizing can
// map distinct raw ids to the same name ("a b" and "a_b"), so a collision
// with an open track falls back to a name keyed on the raw id.
func (w *Writer) trackPath(participantID string) string {
	path := filepath.Join(w.dir, "user_"+sanitize(participantID)+".wav")
	for _, tr := range w.tracks {
		if tr.path == path {
			h := fnv.New32a()
			h.Write([]byte(participantID))
			return filepath.Join(w.dir, fmt.Sprintf("user_%s_%08x.wav", sanitize(participantID), h.Sum32()))
		}
	}
	return path
}

// writeHeader writes a WAV header with zeroed sizes; finalize patches them.
func (t *track) writeHeader(f Format) error {
	blockAlign := f.Channels * f.BitDepth / 8
	byteRate := f.SampleRate * blockAlign

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitDepth))
	copy(h[36:40], "data")

	_, err := t.file.Write(h)
	return err
}

func (t *track) finalize() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], 36+t.dataLen)
	if _, err := t.file.WriteAt(sizes[:], 4); err != nil {
		t.file.Close()
		return fmt.Errorf("patch riff size: %w", err)
	}
	binary.LittleEndian.PutUint32(sizes[:], t.dataLen)
	if _, err := t.file.WriteAt(sizes[:], 40); err != nil {
		t.file.Close()
		return fmt.Errorf("patch data size: %w", err)
	}
	return t.file.Close()
}

func sanitize(participantID string) string {
	return participantPattern.ReplaceAllString(participantID, "_")
}
