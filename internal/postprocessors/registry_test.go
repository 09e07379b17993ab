package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/postprocessors/chunker"
)

// registryMockProcessor is a simple mock for testing registry functionality.
type registryMockProcessor struct {
	name string
}

func (m *registryMockProcessor) Name() string { return m.name }
func (m *registryMockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	builder := func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "test"}, nil
	}

	r.Register("test", builder)

	if !r.Has("test") {
		t.Error("expected 'test' to be registered")
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()

	builder := func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockProcessor{name: name}, nil
	}

	r.Register("test", builder)

	proc, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if proc.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", proc.Name())
	}
}

func TestRegistry_Build_UnknownProcessor(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("unknown", nil)
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType for unknown processor, got %v", err)
	}
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry()

	if r.Has("nonexistent") {
		t.Error("expected Has to return false for nonexistent processor")
	}

	r.Register("exists", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "exists"}, nil
	})

	if !r.Has("exists") {
		t.Error("expected Has to return true for registered processor")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()

	names := r.Names()
	if len(names) != 0 {
		t.Errorf("expected 0 names, got %d", len(names))
	}

	r.Register("alpha", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "alpha"}, nil
	})
	r.Register("beta", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "beta"}, nil
	})

	names = r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected [alpha beta], got %v", names)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for _, name := range []string{"chunker", "markdown"} {
		if !r.Has(name) {
			t.Errorf("expected %q to be registered after RegisterDefaults", name)
		}
	}
}

func TestBuildChunker_WithConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := map[string]any{
		"chunk_size": int64(500),
		"overlap":    float64(100),
	}

	proc, err := r.Build("chunker", cfg)
	if err != nil {
		t.Fatalf("Build chunker failed: %v", err)
	}

	c, ok := proc.(*chunker.Processor)
	if !ok {
		t.Fatalf("expected *chunker.Processor, got %T", proc)
	}
	if c.ChunkSize() != 500 || c.Overlap() != 100 {
		t.Errorf("expected 500/100, got %d/%d", c.ChunkSize(), c.Overlap())
	}
	if c.Mode() != domain.ChunkModeSimple {
		t.Errorf("expected simple mode, got %s", c.Mode())
	}
}

func TestBuildChunker_WithNilConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	proc, err := r.Build("markdown", nil)
	if err != nil {
		t.Fatalf("Build markdown with nil config failed: %v", err)
	}

	c := proc.(*chunker.Processor)
	if c.ChunkSize() != 6000 || c.Overlap() != 200 {
		t.Errorf("expected markdown defaults, got %d/%d", c.ChunkSize(), c.Overlap())
	}
}

func TestBuildChunker_InvalidConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("chunker", map[string]any{"chunk_size": 100, "overlap": 100})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	// an explicit zero overlap is kept, not replaced by the default
	proc, err := r.Build("chunker", map[string]any{"chunk_size": 10, "overlap": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.(*chunker.Processor).Overlap() != 0 {
		t.Error("expected explicit zero overlap")
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
		found    bool
	}{
		{"int value", map[string]any{"size": 100}, "size", 100, true},
		{"int64 value", map[string]any{"size": int64(200)}, "size", 200, true},
		{"float64 value", map[string]any{"size": float64(300)}, "size", 300, true},
		{"zero value", map[string]any{"size": 0}, "size", 0, true},
		{"string value", map[string]any{"size": "400"}, "size", 0, false},
		{"missing key", map[string]any{"other": 100}, "size", 0, false},
		{"nil config", nil, "size", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, found := getIntFromConfig(tt.cfg, tt.key)
			if result != tt.expected || found != tt.found {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.expected, tt.found, result, found)
			}
		})
	}
}
