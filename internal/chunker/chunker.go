// Package chunker splits normalised text into bounded, indexed segments on
// sentence boundaries, with a small overlap between adjacent chunks to
// preserve context continuity.
package chunker

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultTargetSize is the default chunk size budget in characters.
const DefaultTargetSize = 1000

// DefaultOverlap is the default overlap budget in characters.
const DefaultOverlap = 200

// sentenceRe matches sentences terminated by ., ! or ?, plus a trailing
// fragment without a terminator.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+`)

// Chunker splits text into sentence-aligned chunks.
type Chunker struct {
	targetSize int
	overlap    int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetSize sets the chunk size budget in characters.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.targetSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetSize: DefaultTargetSize,
		overlap:    DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.targetSize {
		c.overlap = c.targetSize / 4
	}

	return c
}

// Split returns the ordered chunks for the text. Indexes start at 0 and
// are contiguous in iteration order. Empty input yields zero chunks.
func (c *Chunker) Split(text string) []driven.TextChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := c.sentences(text)

	var chunks []driven.TextChunk
	var current []string
	currentLen := 0
	fresh := 0 // sentences in current that are not overlap carry-over

	emit := func() {
		content := strings.TrimSpace(strings.Join(current, " "))
		if content == "" {
			return
		}
		chunks = append(chunks, driven.TextChunk{Index: len(chunks), Content: content})
	}

	for _, s := range sentences {
		if currentLen+len(s) > c.targetSize && fresh > 0 {
			emit()

			// Seed the next chunk with trailing sentences within the
			// overlap budget.
			var tail []string
			tailLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				if tailLen+len(current[i]) > c.overlap {
					break
				}
				tail = append([]string{current[i]}, tail...)
				tailLen += len(current[i]) + 1
			}
			current = tail
			currentLen = tailLen
			fresh = 0
		}
		current = append(current, s)
		currentLen += len(s) + 1
		fresh++
	}

	if fresh > 0 {
		emit()
	}

	return chunks
}

// sentences splits text on sentence boundaries and hard-splits any single
// sentence exceeding the target size so every unit fits the budget.
func (c *Chunker) sentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if len(m) <= c.targetSize {
			out = append(out, m)
			continue
		}
		runes := []rune(m)
		for start := 0; start < len(runes); start += c.targetSize {
			end := start + c.targetSize
			if end > len(runes) {
				end = len(runes)
			}
			piece := strings.TrimSpace(string(runes[start:end]))
			if piece != "" {
				out = append(out, piece)
			}
		}
	}

	if len(out) == 0 {
		return []string{text}
	}
	return out
}
