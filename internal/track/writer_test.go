package track

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(t.TempDir(), DefaultFormat, logger.New("error"))
}

func TestOpenTwice(t *testing.T) {
	w := newTestWriter(t)

	if err := w.Open("alice"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Open("alice"); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open() error = %v, want ErrAlreadyOpen", err)
	}
}

func TestAppendNotOpen(t *testing.T) {
	w := newTestWriter(t)

	if err := w.Append("ghost", []byte{0, 0}); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Append() error = %v, want ErrNotOpen", err)
	}
}

func TestAppendAfterCloseAll(t *testing.T) {
	w := newTestWriter(t)

	if err := w.Open("alice"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	w.CloseAll(context.Background())

	if err := w.Append("alice", []byte{0, 0}); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Append() after CloseAll error = %v, want ErrNotOpen", err)
	}
}

func TestOpenAfterCloseAllRefused(t *testing.T) {
	w := newTestWriter(t)

	if err := w.Open("alice"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Append("alice", make([]byte, 960)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	paths := w.CloseAll(context.Background())
	if len(paths) != 1 {
		t.Fatalf("CloseAll() returned %d paths, want 1", len(paths))
	}
	finalized, err := os.Stat(paths[0])
	if err != nil {
		t.Fatal(err)
	}

	// A late reopen must not recreate the file and truncate the audio the
	// mixer is about to read.
	if err := w.Open("alice"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Open() after CloseAll error = %v, want ErrNotOpen", err)
	}
	if err := w.Open("bob"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Open(new participant) after CloseAll error = %v, want ErrNotOpen", err)
	}

	after, err := os.Stat(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if after.Size() != finalized.Size() {
		t.Errorf("track size changed after late reopen: %d -> %d", finalized.Size(), after.Size())
	}
}

func TestSanitizeCollision(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, DefaultFormat, logger.New("error"))

	// Both ids sanitize to "a_b"; the second must not truncate the first's
	// file.
	if err := w.Open("a b"); err != nil {
		t.Fatalf("Open(a b) error = %v", err)
	}
	if err := w.Append("a b", make([]byte, 960)); err != nil {
		t.Fatalf("Append(a b) error = %v", err)
	}
	if err := w.Open("a_b"); err != nil {
		t.Fatalf("Open(a_b) error = %v", err)
	}

	first, err := w.Path("a b")
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Path("a_b")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("colliding ids share a track file: %s", first)
	}

	info, err := os.Stat(first)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 44+960 {
		t.Errorf("first track truncated by colliding open: size = %d, want %d", info.Size(), 44+960)
	}

	if paths := w.CloseAll(context.Background()); len(paths) != 2 {
		t.Errorf("CloseAll() returned %d paths, want 2", len(paths))
	}
}

func TestWavHeader(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, Format{SampleRate: 48000, Channels: 2, BitDepth: 16}, logger.New("error"))

	if err := w.Open("alice"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	pcm := make([]byte, 960) // 5ms of 48kHz stereo s16le
	for i := 0; i < 3; i++ {
		if err := w.Append("alice", pcm); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	paths := w.CloseAll(context.Background())
	if len(paths) != 1 {
		t.Fatalf("CloseAll() returned %d paths, want 1", len(paths))
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != 44+2880 {
		t.Fatalf("file size = %d, want %d", len(data), 44+2880)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 36+2880 {
		t.Errorf("riff size = %d, want %d", got, 36+2880)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 2880 {
		t.Errorf("data size = %d, want %d", got, 2880)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 48000 {
		t.Errorf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
}

func TestCloseAllSorted(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, DefaultFormat, logger.New("error"))

	for _, id := range []string{"zoe", "alice", "mallory"} {
		if err := w.Open(id); err != nil {
			t.Fatalf("Open(%s) error = %v", id, err)
		}
	}

	paths := w.CloseAll(context.Background())
	want := []string{
		filepath.Join(dir, "user_alice.wav"),
		filepath.Join(dir, "user_mallory.wav"),
		filepath.Join(dir, "user_zoe.wav"),
	}
	if len(paths) != len(want) {
		t.Fatalf("CloseAll() returned %d paths, want %d", len(paths), len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestSanitizedParticipantPath(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, DefaultFormat, logger.New("error"))

	if err := w.Open("../evil/../../id"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	path, err := w.Path("../evil/../../id")
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("track escaped session dir: %s", path)
	}
}

func TestConcurrentAppends(t *testing.T) {
	w := newTestWriter(t)

	participants := []string{"alice", "bob", "carol"}
	for _, id := range participants {
		if err := w.Open(id); err != nil {
			t.Fatalf("Open(%s) error = %v", id, err)
		}
	}

	var wg sync.WaitGroup
	pcm := make([]byte, 192)
	for _, id := range participants {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if err := w.Append(id, pcm); err != nil {
					t.Errorf("Append(%s) error = %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	paths := w.CloseAll(context.Background())
	if len(paths) != 3 {
		t.Fatalf("CloseAll() returned %d paths, want 3", len(paths))
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() != 44+20*192 {
			t.Errorf("%s size = %d, want %d", p, info.Size(), 44+20*192)
		}
	}
}
