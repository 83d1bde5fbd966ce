package recap

import "context"

// Engine produces a final recap from a transcript via chunked map-reduce
// summarization. Summarize never fails on upstream errors; it always returns
// a human-readable string.
type Engine interface {
	Summarize(ctx context.Context, transcript string) string
	WriteDoc(title, markdown, outputPath string) error
}
