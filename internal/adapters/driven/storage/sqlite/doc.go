// Package sqlite provides a SQLite-backed implementation of driven.CollectionIndex.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each collection row declares its embedding
// dimension; records hold the chunk text and the embedding as a little-endian
// float32 blob.
//
// # Search
//
// Search is exact: every record of the collection is scored by cosine similarity
// and the best k are returned in descending order, ties in insertion order.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
