package recap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

// fakeCompleter scripts responses by prompt content.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string

	// complete decides the response for each prompt.
	complete func(prompt string) (string, error)
	// delay per call, keyed by chunk header, to shuffle completion order.
	delay func(prompt string) time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if f.delay != nil {
		select {
		case <-time.After(f.delay(prompt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.complete(prompt)
}

func (f *fakeCompleter) Endpoint() string { return "http://127.0.0.1:11434" }

func testEngine(t *testing.T, cfg config.RecapConfig, c *fakeCompleter) Engine {
	t.Helper()
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 2
	}
	if cfg.ChunkTimeout == 0 {
		cfg.ChunkTimeout = config.Duration(5 * time.Second)
	}
	if cfg.MergeTimeout == 0 {
		cfg.MergeTimeout = config.Duration(5 * time.Second)
	}
	e, err := New(cfg, c, filepath.Join(t.TempDir(), "missing_prompt.txt"), logger.New("error"))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func isMerge(prompt string) bool {
	return strings.HasPrefix(prompt, "Combine the following chunked notes")
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name   string
		length int
		n      int
		want   int
	}{
		{"empty yields one chunk", 0, 10, 1},
		{"exact multiple", 30, 10, 3},
		{"remainder", 31, 10, 4},
		{"single short chunk", 5, 12000, 1},
		{"budget of one", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("x", tt.length)
			chunks := SplitChunks(text, tt.n)
			if len(chunks) != tt.want {
				t.Errorf("SplitChunks() produced %d chunks, want %d", len(chunks), tt.want)
			}
			if strings.Join(chunks, "") != text {
				t.Error("concatenated chunks do not reproduce the input")
			}
			for _, c := range chunks {
				if len(c) > tt.n {
					t.Errorf("chunk length %d exceeds budget %d", len(c), tt.n)
				}
			}
		})
	}
}

func TestNewRejectsBadChunkSize(t *testing.T) {
	c := &fakeCompleter{complete: func(string) (string, error) { return "", nil }}
	for _, n := range []int{0, -1} {
		cfg := config.RecapConfig{ChunkSize: n, Concurrency: 1}
		if _, err := New(cfg, c, "prompt.txt", logger.New("error")); err == nil {
			t.Errorf("New(chunk_size=%d) error = nil, want non-nil", n)
		}
	}
}

func TestSummarizeSingleChunk(t *testing.T) {
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				return "final recap", nil
			}
			return "chunk summary", nil
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 12000}, c)

	got := e.Summarize(context.Background(), "a short transcript")
	if got != "final recap" {
		t.Errorf("Summarize() = %q, want %q", got, "final recap")
	}

	if len(c.prompts) != 2 {
		t.Fatalf("completer called %d times, want 2", len(c.prompts))
	}
	if !strings.Contains(c.prompts[0], "[TRANSCRIPT CHUNK 1/1]") {
		t.Errorf("chunk prompt missing index header: %q", c.prompts[0])
	}
	if !strings.Contains(c.prompts[0], "a short transcript") {
		t.Error("chunk prompt missing transcript text")
	}
}

func TestSummarizeEmptyTranscript(t *testing.T) {
	var chunkCalls int
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				return "empty recap", nil
			}
			chunkCalls++
			return "nothing happened", nil
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 12000}, c)

	if got := e.Summarize(context.Background(), ""); got != "empty recap" {
		t.Errorf("Summarize() = %q, want %q", got, "empty recap")
	}
	if chunkCalls != 1 {
		t.Errorf("chunk calls = %d, want 1 even for empty transcript", chunkCalls)
	}
}

func TestSummarizeOrderedJoin(t *testing.T) {
	// Delay the first chunk so it completes last; the merge input must still
	// carry results in index order.
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				return "merged", nil
			}
			switch {
			case strings.Contains(prompt, "CHUNK 1/3"):
				return "summary-one", nil
			case strings.Contains(prompt, "CHUNK 2/3"):
				return "summary-two", nil
			default:
				return "summary-three", nil
			}
		},
		delay: func(prompt string) time.Duration {
			if strings.Contains(prompt, "CHUNK 1/3") {
				return 50 * time.Millisecond
			}
			return 0
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 10, Concurrency: 3}, c)

	e.Summarize(context.Background(), strings.Repeat("x", 25))

	var mergePrompt string
	for _, p := range c.prompts {
		if isMerge(p) {
			mergePrompt = p
		}
	}
	if mergePrompt == "" {
		t.Fatal("merge prompt never issued")
	}

	i1 := strings.Index(mergePrompt, "summary-one")
	i2 := strings.Index(mergePrompt, "summary-two")
	i3 := strings.Index(mergePrompt, "summary-three")
	if i1 < 0 || i2 < 0 || i3 < 0 {
		t.Fatalf("merge prompt missing chunk results: %q", mergePrompt)
	}
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("chunk results out of order in merge input: %d %d %d", i1, i2, i3)
	}
	if !strings.Contains(mergePrompt, "summary-one\n\nsummary-two") {
		t.Error("chunk results not separated by a blank line")
	}
}

func TestSummarizeChunkFailureContained(t *testing.T) {
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				return "merged", nil
			}
			if strings.Contains(prompt, "CHUNK 2/3") {
				return "", errors.New("connection refused")
			}
			return "ok", nil
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 10}, c)

	got := e.Summarize(context.Background(), strings.Repeat("x", 25))
	if got != "merged" {
		t.Errorf("Summarize() = %q, want merge output despite chunk failure", got)
	}

	var mergePrompt string
	for _, p := range c.prompts {
		if isMerge(p) {
			mergePrompt = p
		}
	}
	want := "[Chunk 2 summarization failed: connection refused]"
	if !strings.Contains(mergePrompt, want) {
		t.Errorf("merge input missing placeholder %q:\n%s", want, mergePrompt)
	}
	if !strings.Contains(mergePrompt, "ok\n\n"+want+"\n\nok") {
		t.Errorf("placeholder not in chunk 2's slot:\n%s", mergePrompt)
	}
}

func TestSummarizeAllChunksFail(t *testing.T) {
	mergeRan := false
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				mergeRan = true
				return "recap from placeholders", nil
			}
			return "", errors.New("down")
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 10}, c)

	got := e.Summarize(context.Background(), strings.Repeat("x", 25))
	if !mergeRan {
		t.Error("reduce phase did not run after total map failure")
	}
	if got != "recap from placeholders" {
		t.Errorf("Summarize() = %q", got)
	}
}

func TestSummarizeMergeFailureContained(t *testing.T) {
	c := &fakeCompleter{
		complete: func(prompt string) (string, error) {
			if isMerge(prompt) {
				return "", errors.New("timeout")
			}
			return "ok", nil
		},
	}
	e := testEngine(t, config.RecapConfig{ChunkSize: 12000}, c)

	got := e.Summarize(context.Background(), "transcript")
	want := fmt.Sprintf("[Merge step failed contacting LLM at %s: timeout]", c.Endpoint())
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestWriteDoc(t *testing.T) {
	c := &fakeCompleter{complete: func(string) (string, error) { return "", nil }}
	e := testEngine(t, config.RecapConfig{ChunkSize: 12000}, c)

	out := filepath.Join(t.TempDir(), "recap.docx")
	md := "# Session Recap\n\n- **Quest** accepted\n- Dragon slain\n\n1. Loot divided\n"
	if err := e.WriteDoc("20240115_093000", md, out); err != nil {
		t.Fatalf("WriteDoc() error = %v", err)
	}
}
