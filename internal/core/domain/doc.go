// Package domain defines the core entities of the retrieval subsystem.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded source document before chunking
//   - Chunk: A bounded-size segment of a document, the unit of embedding
//   - Record: A stored (text, embedding) pair inside a vector store
//   - ScoredText: A retrieval hit with its cosine similarity
//   - RetrieveOptions: top-k and optional threshold for a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
