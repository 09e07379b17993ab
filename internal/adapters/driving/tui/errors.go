package tui

import "errors"

// ErrMissingCollectionService is returned when the collection service is not provided.
var ErrMissingCollectionService = errors.New("tui: collection service is required")
