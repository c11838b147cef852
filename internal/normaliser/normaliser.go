// Package normaliser cleans raw input text before chunking: it strips
// tag-like markup, decodes entities and collapses whitespace.
package normaliser

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/grounded/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TextNormaliser = (*Normaliser)(nil)

// Normaliser cleans raw document and query text.
type Normaliser struct {
	stripMarkup         bool
	normaliseWhitespace bool
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithStripMarkup enables or disables markup stripping (default on).
func WithStripMarkup(enabled bool) Option {
	return func(n *Normaliser) {
		n.stripMarkup = enabled
	}
}

// WithNormaliseWhitespace enables or disables whitespace collapsing
// (default on).
func WithNormaliseWhitespace(enabled bool) Option {
	return func(n *Normaliser) {
		n.normaliseWhitespace = enabled
	}
}

// New creates a normaliser with the given options.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		stripMarkup:         true,
		normaliseWhitespace: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Pre-compiled regular expressions for markup stripping.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Clean normalises the text. Empty input yields an empty string; markup
// that cannot be parsed passes through unchanged.
func (n *Normaliser) Clean(text string) string {
	if text == "" {
		return ""
	}

	if n.stripMarkup {
		// Remove script and style bodies entirely, then comments, then
		// any remaining tags. Replace tags with a space so adjacent text
		// does not fuse into one word.
		text = scriptTag.ReplaceAllString(text, " ")
		text = styleTag.ReplaceAllString(text, " ")
		text = htmlComments.ReplaceAllString(text, " ")
		text = allTags.ReplaceAllString(text, " ")

		// Decode HTML entities
		text = html.UnescapeString(text)
	}

	if n.normaliseWhitespace {
		text = whitespace.ReplaceAllString(text, " ")
		text = strings.TrimSpace(text)
	}

	return text
}
