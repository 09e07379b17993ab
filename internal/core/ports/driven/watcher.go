package driven

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// FileWatcher reports changes to supported documents under a set of paths.
type FileWatcher interface {
	// Watch starts watching. The channel closes when ctx is cancelled or
	// the watcher is closed. A watcher can only be started once.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops watching. Safe to call more than once.
	Close() error
}
