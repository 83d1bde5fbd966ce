package recap

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Summarize runs the two-phase map-reduce over the transcript.
//
// Map: the transcript is split on a fixed character budget and every chunk
// is summarized independently, bounded by the configured concurrency. A
// failed chunk becomes an inline placeholder in its slot; the other chunks
// proceed.
//
// Reduce: chunk results are joined strictly in index order and merged by one
// further completion. A merge failure becomes the recap itself, so this
// method always returns a human-readable string.
func (e *implEngine) Summarize(ctx context.Context, transcript string) string {
	chunks := SplitChunks(transcript, e.cfg.ChunkSize)
	e.logger.Info(ctx, "Summarizing transcript: %d chars, %d chunks", len(transcript), len(chunks))

	results := make([]string, len(chunks))
	sem := newSemaphore(e.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()

			if err := sem.acquire(ctx); err != nil {
				results[i] = chunkFailure(i+1, err)
				return
			}
			defer sem.release()

			results[i] = e.summarizeChunk(ctx, i+1, len(chunks), chunk)
		}(i, chunk)
	}
	wg.Wait()

	merged := strings.Join(results, "\n\n")
	return e.merge(ctx, merged)
}

func (e *implEngine) summarizeChunk(ctx context.Context, index, total int, chunk string) string {
	prompt := fmt.Sprintf(
		"%s\n\n[TRANSCRIPT CHUNK %d/%d]\n%s\n\nReturn only the requested sections.",
		e.prompt, index, total, chunk,
	)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.ChunkTimeout.Std())
	defer cancel()

	out, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Warn(ctx, "Chunk %d/%d summarization failed: %v", index, total, err)
		return chunkFailure(index, err)
	}
	return out
}

func (e *implEngine) merge(ctx context.Context, outlines string) string {
	prompt := "Combine the following chunked notes into a single well-structured session recap " +
		"with the same sections, removing duplicates and keeping the best details:\n\n" + outlines

	ctx, cancel := context.WithTimeout(ctx, e.cfg.MergeTimeout.Std())
	defer cancel()

	final, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error(ctx, "Merge step failed: %v", err)
		return fmt.Sprintf("[Merge step failed contacting LLM at %s: %v]", e.completer.Endpoint(), err)
	}
	return final
}

func chunkFailure(index int, err error) string {
	return fmt.Sprintf("[Chunk %d summarization failed: %v]", index, err)
}
