// Package mcp provides an MCP (Model Context Protocol) server adapter for weave-rag.
// It lets AI assistants retrieve context from stored collections.
package mcp

import "errors"

// ErrMissingCollectionService is returned when the collection service is not provided.
var ErrMissingCollectionService = errors.New("mcp: collection service is required")
