// Package chunker provides header-aware and fixed-window text chunking processors.
package chunker

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// Piece is a chunk of text before it is attached to a document.
type Piece struct {
	// Text is the chunk content.
	Text string

	// Header is the heading of the section the piece came from, if any.
	Header string
}

// Processor splits document content into bounded-size chunks.
// It implements the PostProcessor interface.
//
// Sizes are counted in characters (runes), not bytes.
type Processor struct {
	mode      domain.ChunkMode
	chunkSize int
	overlap   int

	sizeSet    bool
	overlapSet bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMode selects header-aware (markdown) or fixed-window (simple) chunking.
func WithMode(mode domain.ChunkMode) Option {
	return func(p *Processor) {
		p.mode = mode
	}
}

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
		p.sizeSet = true
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
		p.overlapSet = true
	}
}

// New creates a new chunker processor with the given options.
// Unset sizes take the defaults of the selected mode. Invalid sizing is
// rejected with domain.ErrInvalidConfig rather than adjusted.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{mode: domain.ChunkModeMarkdown}

	for _, opt := range opts {
		opt(p)
	}

	if !p.mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown chunk mode %q", domain.ErrInvalidConfig, p.mode)
	}

	if !p.sizeSet {
		p.chunkSize = defaultChunkSize(p.mode)
	}
	if !p.overlapSet {
		p.overlap = defaultOverlap(p.mode)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidConfig, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, p.overlap, p.chunkSize)
	}

	return p, nil
}

func defaultChunkSize(mode domain.ChunkMode) int {
	if mode == domain.ChunkModeSimple {
		return domain.DefaultSimpleChunkSize
	}
	return domain.DefaultMarkdownChunkSize
}

func defaultOverlap(mode domain.ChunkMode) int {
	if mode == domain.ChunkModeSimple {
		return domain.DefaultSimpleOverlap
	}
	return domain.DefaultMarkdownOverlap
}

// Name returns the processor name.
func (p *Processor) Name() string {
	if p.mode == domain.ChunkModeMarkdown {
		return "markdown"
	}
	return "chunker"
}

// Mode returns the chunking mode.
func (p *Processor) Mode() domain.ChunkMode {
	return p.mode
}

// ChunkSize returns the maximum chunk length in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap in characters.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split cuts text into pieces according to the processor's mode.
// Empty input yields no pieces.
func (p *Processor) Split(text string) []Piece {
	if text == "" {
		return nil
	}
	if p.mode == domain.ChunkModeSimple {
		return p.splitWindows(text)
	}
	return p.splitMarkdown(text)
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pieces := p.Split(doc.Content)
	if len(pieces) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:           uuid.New().String(),
			DocumentID:   doc.ID,
			Content:      piece.Text,
			Position:     i,
			SourceHeader: piece.Header,
			Metadata: map[string]any{
				"chunk_mode": string(p.mode),
			},
		})
	}

	return chunks, nil
}

// splitWindows slides a chunkSize window across text, advancing by
// chunkSize-overlap and emitting every window including the final partial one.
func (p *Processor) splitWindows(text string) []Piece {
	runes := []rune(text)
	n := len(runes)
	step := p.chunkSize - p.overlap

	pieces := make([]Piece, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := min(start+p.chunkSize, n)
		pieces = append(pieces, Piece{Text: string(runes[start:end])})
	}

	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
