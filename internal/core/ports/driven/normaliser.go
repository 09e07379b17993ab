package driven

import "context"

// Normaliser turns the bytes of one file format into text the chunker can split.
// Headings are emitted as Markdown "#" lines so the markdown chunker keeps them.
type Normaliser interface {
	// Format names the format. It is recorded as the document's "format" metadata.
	Format() string

	// Extensions returns the lower-case file extensions handled, dot included.
	Extensions() []string

	// Normalise converts raw file content.
	// Returns domain.ErrUnsupportedType if data is not in this format.
	Normalise(ctx context.Context, data []byte) (*NormaliseResult, error)
}

// NormaliseResult is the output of a Normaliser.
type NormaliseResult struct {
	// Title is taken from the content, empty if the content names none.
	Title string

	// Content is UTF-8 text with "\n" line endings.
	Content string
}
