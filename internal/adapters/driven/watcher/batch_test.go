package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

func receive(t *testing.T, ch <-chan []domain.FileChange) []domain.FileChange {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "batch channel closed")
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for batch")
		return nil
	}
}

func TestBatch_CollapsesRepeatedPaths(t *testing.T) {
	in := make(chan domain.FileChange)
	out := Batch(context.Background(), in, 20*time.Millisecond)

	in <- domain.FileChange{Path: "/a.md", Type: domain.ChangeCreated}
	in <- domain.FileChange{Path: "/b.md", Type: domain.ChangeUpdated}
	in <- domain.FileChange{Path: "/a.md", Type: domain.ChangeUpdated}

	batch := receive(t, out)
	assert.Equal(t, []domain.FileChange{
		{Path: "/a.md", Type: domain.ChangeUpdated},
		{Path: "/b.md", Type: domain.ChangeUpdated},
	}, batch)

	close(in)
	_, ok := <-out
	assert.False(t, ok)
}

func TestBatch_SeparateBursts(t *testing.T) {
	in := make(chan domain.FileChange)
	out := Batch(context.Background(), in, 20*time.Millisecond)

	in <- domain.FileChange{Path: "/a.md", Type: domain.ChangeCreated}
	assert.Len(t, receive(t, out), 1)

	in <- domain.FileChange{Path: "/a.md", Type: domain.ChangeDeleted}
	batch := receive(t, out)
	require.Len(t, batch, 1)
	assert.Equal(t, domain.ChangeDeleted, batch[0].Type)

	close(in)
}

func TestBatch_FlushesOnClose(t *testing.T) {
	in := make(chan domain.FileChange, 1)
	out := Batch(context.Background(), in, time.Hour)

	in <- domain.FileChange{Path: "/a.md", Type: domain.ChangeCreated}
	close(in)

	assert.Len(t, receive(t, out), 1)
	_, ok := <-out
	assert.False(t, ok)
}

func TestBatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := Batch(ctx, make(chan domain.FileChange), 0)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("batch channel did not close")
	}
}
