package recap

// SplitChunks slices text into contiguous, non-overlapping chunks of at most
// n characters, on a fixed character budget rather than sentence boundaries.
// Concatenating the chunks in order reproduces text exactly. Empty text
// yields a single empty chunk, so the pipeline always performs at least one
// summarization round.
func SplitChunks(text string, n int) []string {
	if len(text) == 0 {
		return []string{""}
	}

	chunks := make([]string, 0, (len(text)+n-1)/n)
	for i := 0; i < len(text); i += n {
		end := i + n
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
	}
	return chunks
}
