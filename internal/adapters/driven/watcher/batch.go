package watcher

import (
	"context"
	"time"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// DefaultQuietPeriod is how long the stream must be idle before a batch is emitted.
const DefaultQuietPeriod = 2 * time.Second

// Batch groups changes and emits a batch once no change has arrived for quiet.
// Repeated changes to a path collapse into the latest one, in first-seen order.
// The output closes after in closes (flushing any pending batch) or ctx is done.
func Batch(ctx context.Context, in <-chan domain.FileChange, quiet time.Duration) <-chan []domain.FileChange {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	out := make(chan []domain.FileChange)

	go func() {
		defer close(out)

		var (
			pending []domain.FileChange
			index   = make(map[string]int)
			timer   *time.Timer
			fire    <-chan time.Time
		)

		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			batch := pending
			pending, index = nil, make(map[string]int)
			select {
			case out <- batch:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case change, ok := <-in:
				if !ok {
					flush()
					return
				}
				if i, seen := index[change.Path]; seen {
					pending[i] = change
				} else {
					index[change.Path] = len(pending)
					pending = append(pending, change)
				}
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			}
		}
	}()

	return out
}
