package driven

// TextNormaliser cleans raw input text before chunking.
type TextNormaliser interface {
	// Clean strips markup and normalises whitespace according to the
	// implementation's options. Empty input yields an empty string;
	// unparseable markup passes through unchanged (best effort).
	Clean(text string) string
}

// TextChunk is one bounded segment produced by a Chunker.
type TextChunk struct {
	// Index is the 0-based position, contiguous in iteration order.
	Index int

	// Content is the segment text.
	Content string
}

// Chunker splits normalised text into bounded, indexed segments.
type Chunker interface {
	// Split returns the ordered chunks for the text. Degenerate input
	// yields zero chunks, which callers must treat as a validation error.
	Split(text string) []TextChunk
}
