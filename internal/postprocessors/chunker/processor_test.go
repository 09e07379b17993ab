package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

func mustNew(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

// reassemble rebuilds the source from fixed-window pieces by dropping each
// later piece's leading overlap.
func reassemble(pieces []Piece, overlap int) string {
	var b strings.Builder
	for i, piece := range pieces {
		runes := []rune(piece.Text)
		if i > 0 {
			runes = runes[min(overlap, len(runes)):]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

func TestNew(t *testing.T) {
	t.Run("markdown defaults", func(t *testing.T) {
		p := mustNew(t)
		if p.Mode() != domain.ChunkModeMarkdown {
			t.Errorf("expected markdown mode, got %s", p.Mode())
		}
		if p.ChunkSize() != 6000 || p.Overlap() != 200 {
			t.Errorf("expected 6000/200, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	t.Run("simple defaults", func(t *testing.T) {
		p := mustNew(t, WithMode(domain.ChunkModeSimple))
		if p.ChunkSize() != 512 || p.Overlap() != 50 {
			t.Errorf("expected 512/50, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := mustNew(t, WithChunkSize(500), WithOverlap(0))
		if p.ChunkSize() != 500 || p.Overlap() != 0 {
			t.Errorf("expected 500/0, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	invalid := []struct {
		name string
		opts []Option
	}{
		{"overlap equals chunk size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds chunk size", []Option{WithChunkSize(100), WithOverlap(150)}},
		{"zero chunk size", []Option{WithChunkSize(0)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
		{"default overlap exceeds small chunk size", []Option{WithChunkSize(100)}},
		{"unknown mode", []Option{WithMode("semantic")}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts...)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if p != nil {
				t.Error("expected nil processor on error")
			}
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	if got := mustNew(t, WithMode(domain.ChunkModeSimple)).Name(); got != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", got)
	}
	if got := mustNew(t).Name(); got != "markdown" {
		t.Errorf("expected name 'markdown', got '%s'", got)
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	for _, mode := range []domain.ChunkMode{domain.ChunkModeSimple, domain.ChunkModeMarkdown} {
		p := mustNew(t, WithMode(mode))
		doc := &domain.Document{ID: "test-doc", Content: ""}

		chunks, err := p.Process(context.Background(), doc, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("%s: expected 0 chunks for empty content, got %d", mode, len(chunks))
		}
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := mustNew(t, WithMode(domain.ChunkModeSimple))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "Salt Lake City is the capital of Utah.",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].DocumentID != doc.ID {
		t.Errorf("expected DocumentID '%s', got '%s'", doc.ID, chunks[0].DocumentID)
	}
	if chunks[0].Content != doc.Content {
		t.Errorf("expected content to match document content")
	}
	if chunks[0].ID == "" {
		t.Error("expected chunk ID to be set")
	}
	if chunks[0].Metadata["chunk_mode"] != "simple" {
		t.Errorf("expected chunk_mode metadata, got %v", chunks[0].Metadata)
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustNew(t)
	_, err := p.Process(ctx, &domain.Document{Content: "text"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSplit_Simple_Coverage(t *testing.T) {
	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	for _, tc := range []struct{ size, overlap int }{{100, 20}, {512, 50}, {7, 0}, {10, 9}} {
		p := mustNew(t, WithMode(domain.ChunkModeSimple), WithChunkSize(tc.size), WithOverlap(tc.overlap))
		pieces := p.Split(content)

		if got := reassemble(pieces, tc.overlap); got != content {
			t.Errorf("size %d overlap %d: reassembled text differs from source", tc.size, tc.overlap)
		}
		for i, piece := range pieces {
			if n := utf8.RuneCountInString(piece.Text); n > tc.size {
				t.Errorf("piece %d has %d chars, exceeds %d", i, n, tc.size)
			}
		}
	}
}

func TestSplit_Simple_Overlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 25) // 250 chars
	p := mustNew(t, WithMode(domain.ChunkModeSimple), WithChunkSize(100), WithOverlap(20))
	pieces := p.Split(content)

	// windows start at 0, 80, 160, 240
	if len(pieces) != 4 {
		t.Fatalf("expected 4 pieces, got %d", len(pieces))
	}
	for i := 0; i+1 < len(pieces); i++ {
		prev := []rune(pieces[i].Text)
		next := []rune(pieces[i+1].Text)
		if len(prev) < 100 || len(next) < 20 {
			continue
		}
		if string(prev[len(prev)-20:]) != string(next[:20]) {
			t.Errorf("pieces %d and %d do not share 20 characters", i, i+1)
		}
	}
	if got := pieces[3].Text; got != content[240:] {
		t.Errorf("expected final partial window %q, got %q", content[240:], got)
	}
}

func TestSplit_Simple_CountsRunes(t *testing.T) {
	p := mustNew(t, WithMode(domain.ChunkModeSimple), WithChunkSize(4), WithOverlap(1))
	pieces := p.Split("héllo wörld")

	want := []string{"héll", "lo w", "wörl", "ld"}
	if len(pieces) != len(want) {
		t.Fatalf("expected %d pieces, got %d", len(want), len(pieces))
	}
	for i := range want {
		if pieces[i].Text != want[i] {
			t.Errorf("piece %d: expected %q, got %q", i, want[i], pieces[i].Text)
		}
	}
}

func TestSplit_Simple_SmallestWindowTerminates(t *testing.T) {
	p := mustNew(t, WithMode(domain.ChunkModeSimple), WithChunkSize(5), WithOverlap(4))
	pieces := p.Split(strings.Repeat("x", 100))
	if len(pieces) != 100 {
		t.Errorf("expected 100 pieces for step 1, got %d", len(pieces))
	}
}

func TestSplit_Markdown_WholeDocument(t *testing.T) {
	p := mustNew(t)
	pieces := p.Split("# Title\n\nShort body.\n")

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Text != "# Title\n\nShort body." {
		t.Errorf("unexpected text %q", pieces[0].Text)
	}
	if pieces[0].Header != "# Title" {
		t.Errorf("expected header '# Title', got %q", pieces[0].Header)
	}
}

func TestSplit_Markdown_Sections(t *testing.T) {
	p := mustNew(t)
	pieces := p.Split("Intro line.\n# A\nalpha text\n## B\nbeta text\n####### not a heading")

	want := []Piece{
		{Text: "Intro line.", Header: ""},
		{Text: "# A\nalpha text", Header: "# A"},
		{Text: "## B\nbeta text\n####### not a heading", Header: "## B"},
	}
	if len(pieces) != len(want) {
		t.Fatalf("expected %d pieces, got %d: %#v", len(want), len(pieces), pieces)
	}
	for i := range want {
		if pieces[i] != want[i] {
			t.Errorf("piece %d: expected %#v, got %#v", i, want[i], pieces[i])
		}
	}
}

func TestSplit_Markdown_SkipsEmptySections(t *testing.T) {
	p := mustNew(t)
	pieces := p.Split("\n\n   \n# Only\n")

	if len(pieces) != 1 || pieces[0].Text != "# Only" {
		t.Errorf("expected single heading piece, got %#v", pieces)
	}
}

func TestSplit_Markdown_ParagraphPackingRepeatsHeader(t *testing.T) {
	p := mustNew(t, WithChunkSize(40), WithOverlap(5))
	a := strings.Repeat("a", 20)
	b := strings.Repeat("b", 20)
	c := strings.Repeat("c", 20)
	pieces := p.Split("# H\n\n" + a + "\n\n" + b + "\n\n" + c)

	want := []string{"# H\n\n" + a, "# H\n\n" + b, "# H\n\n" + c}
	if len(pieces) != len(want) {
		t.Fatalf("expected %d pieces, got %d: %#v", len(want), len(pieces), pieces)
	}
	for i := range want {
		if pieces[i].Text != want[i] {
			t.Errorf("piece %d: expected %q, got %q", i, want[i], pieces[i].Text)
		}
		if pieces[i].Header != "# H" {
			t.Errorf("piece %d: expected header '# H', got %q", i, pieces[i].Header)
		}
	}
}

func TestSplit_Markdown_LargeParagraphCutsAtSentence(t *testing.T) {
	p := mustNew(t, WithChunkSize(50), WithOverlap(10))
	sentence := "Alpha beta gamma delta epsilon zeta. "
	pieces := p.Split(sentence + strings.Repeat("x", 40))

	want := []string{
		"Alpha beta gamma delta epsilon zeta.",
		"ilon zeta. " + strings.Repeat("x", 39),
		strings.Repeat("x", 11),
	}
	if len(pieces) != len(want) {
		t.Fatalf("expected %d pieces, got %d: %#v", len(want), len(pieces), pieces)
	}
	for i := range want {
		if pieces[i].Text != want[i] {
			t.Errorf("piece %d: expected %q, got %q", i, want[i], pieces[i].Text)
		}
	}
}

func TestSplit_Markdown_LargeParagraphRepeatsHeader(t *testing.T) {
	p := mustNew(t, WithChunkSize(40), WithOverlap(5))
	pieces := p.Split("# T\n" + strings.Repeat("y", 100))

	if len(pieces) < 3 {
		t.Fatalf("expected at least 3 pieces, got %d", len(pieces))
	}
	if !strings.HasPrefix(pieces[0].Text, "# T\ny") {
		t.Errorf("first window should start with the section text, got %q", pieces[0].Text)
	}
	for i, piece := range pieces[1:] {
		if !strings.HasPrefix(piece.Text, "# T\n\n") {
			t.Errorf("piece %d missing header prefix: %q", i+1, piece.Text)
		}
	}
}

func TestSplit_Markdown_SizeBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("## Section\n\n")
		for j := 0; j < 5; j++ {
			b.WriteString(strings.Repeat("Sentence number one goes here. ", j+1))
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Repeat("z", 300))
		b.WriteString("\n\n")
	}

	for _, tc := range []struct{ size, overlap int }{{80, 10}, {120, 30}, {200, 0}} {
		p := mustNew(t, WithChunkSize(tc.size), WithOverlap(tc.overlap))
		pieces := p.Split(b.String())
		if len(pieces) == 0 {
			t.Fatalf("size %d: expected pieces", tc.size)
		}
		for i, piece := range pieces {
			if n := utf8.RuneCountInString(piece.Text); n > tc.size {
				t.Errorf("size %d: piece %d has %d chars", tc.size, i, n)
			}
			if strings.TrimSpace(piece.Text) == "" {
				t.Errorf("size %d: piece %d is blank", tc.size, i)
			}
			if piece.Text == "## Section" {
				t.Errorf("size %d: piece %d holds only the heading", tc.size, i)
			}
		}
	}
}

func TestSplit_Markdown_TinyWindowTerminates(t *testing.T) {
	p := mustNew(t, WithChunkSize(5), WithOverlap(4))
	pieces := p.Split("# Heading\n" + strings.Repeat("word. ", 30))
	if len(pieces) == 0 {
		t.Fatal("expected pieces")
	}
	for i, piece := range pieces {
		if n := utf8.RuneCountInString(piece.Text); n > 5 {
			t.Errorf("piece %d has %d chars", i, n)
		}
	}
}

func TestSentenceCut(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  int
	}{
		{"no ending", "abcdefghij", 0},
		{"ending in front half", "ab. cdefghijklmnop", 0},
		{"ending in back half", "abcdefgh. ij", 9},
		{"question mark", "abcdefgh? ij", 9},
		{"newline ending", "abcdefgh!\nij", 9},
		{"period wins over later question", "abcdefg. ? xy", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sentenceCut([]rune(tt.chunk)); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
