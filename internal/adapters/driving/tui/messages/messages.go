// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewCollections lists stored collections.
	ViewCollections ViewType = iota
	// ViewSearch is the query input and results view.
	ViewSearch
	// ViewSnippet shows one retrieved snippet in full.
	ViewSnippet
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewCollections:
		return "collections"
	case ViewSearch:
		return "search"
	case ViewSnippet:
		return "snippet"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// CollectionsLoaded carries the stored collections.
type CollectionsLoaded struct {
	Collections []driving.CollectionInfo
	Err         error
}

// CollectionSelected is sent when a collection is chosen for querying.
type CollectionSelected struct {
	Name string
}

// RetrieveCompleted carries retrieval results back to the model.
type RetrieveCompleted struct {
	Query   string
	Results []domain.ScoredText
	Err     error
}

// SnippetSelected is sent when a result is opened.
type SnippetSelected struct {
	Rank    int
	Snippet domain.ScoredText
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
