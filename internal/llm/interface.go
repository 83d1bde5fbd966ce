package llm

import "context"

// Completer turns a prompt into generated text. Implementations are expected
// to honor ctx deadlines; the recap engine applies per-call timeouts.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Endpoint identifies where completions go, for error reporting.
	Endpoint() string
}
