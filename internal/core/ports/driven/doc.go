// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Converts text to a fixed-length vector, honouring the task hint
//   - VectorStore: Brute-force in-memory (text, embedding) store
//   - CollectionIndex: Embedded ANN engine holding named collections in one file
//   - PostProcessor: Turns a document into chunks (the chunker)
//   - DocumentLoader: Reads a source path into a Document
//   - Normaliser: Converts one file format into Markdown-style text
//   - FileWatcher: Reports changes to documents on disk
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
