// Package markdown passes Markdown through with its headings intact.
package markdown

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "markdown".
func (n *Normaliser) Format() string {
	return "markdown"
}

// Extensions returns the Markdown file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise keeps the Markdown source so the header-aware chunker sees the
// headings. Only line endings change.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (*driven.NormaliseResult, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: markdown is not valid UTF-8", domain.ErrUnsupportedType)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &driven.NormaliseResult{
		Title:   Title(content),
		Content: content,
	}, nil
}

// Title returns the text of the first level-one heading, or "". Setext
// headings count; lines inside code blocks do not.
func Title(content string) string {
	src := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, src))
		return ast.WalkStop, nil
	})
	return title
}

// inlineText concatenates the text beneath n, dropping inline markup.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		default:
			b.WriteString(inlineText(c, src))
		}
	}
	return b.String()
}
