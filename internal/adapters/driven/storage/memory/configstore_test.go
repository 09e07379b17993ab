package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"embedding.provider": "ollama"}, map[string]any{"retrieval.top_k": 5})

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "value"))
	require.NoError(t, store.Set("i64", int64(42)))
	require.NoError(t, store.Set("f", 0.75))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []any{"a", 1, "b"}))

	assert.Equal(t, "value", store.GetString("s"))
	assert.Equal(t, "", store.GetString("i64"))
	assert.Equal(t, 42, store.GetInt("i64"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.InDelta(t, 0.75, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("i64"), 1e-9)
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()
	val, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Concurrency_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
