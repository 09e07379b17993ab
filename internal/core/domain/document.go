package domain

// Document represents a source document loaded for ingestion.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full raw text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// Chunk represents a bounded-size segment of a document.
// Chunks are never mutated after the chunker produces them.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// SourceHeader is the heading line of the section the chunk came from.
	// Empty for simple-mode chunks and for content before the first heading.
	SourceHeader string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Record is the atomic unit held by a vector store.
type Record struct {
	// ID is unique within a collection.
	ID string

	// Text is the chunk text returned on retrieval.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// Dimension returns the length of the record's embedding.
func (r Record) Dimension() int {
	return len(r.Embedding)
}
