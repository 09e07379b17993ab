// Package html converts HTML pages to Markdown-style text.
package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/markdown"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "html".
func (n *Normaliser) Format() string {
	return "html"
}

// Extensions returns the HTML file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Normalise strips markup. Headings become "#" lines and block elements
// become paragraphs separated by a blank line.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (*driven.NormaliseResult, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: html is not valid UTF-8", domain.ErrUnsupportedType)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrUnsupportedType, err)
	}

	title := inlineText(doc.Find("title").First().Text())
	doc.Find("head, script, style, noscript, svg, template").Remove()
	content := toMarkdown(doc.Selection)

	if title == "" {
		title = markdown.Title(content)
	}
	return &driven.NormaliseResult{Title: title, Content: content}, nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true, "tr": true, "blockquote": true,
	"pre": true, "table": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "nav": true,
}

var multiSpaces = regexp.MustCompile(`[ \t\r\f\v]+`)

// inlineText collapses whitespace to single spaces.
func inlineText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// walk writes the text beneath s, marking block boundaries with newlines.
func walk(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case strings.HasPrefix(name, "#"):
			// comments and doctypes
		case headingLevel(name) > 0:
			b.WriteString("\n\n")
			if text := inlineText(c.Text()); text != "" {
				b.WriteString(strings.Repeat("#", headingLevel(name)) + " " + text + "\n\n")
			}
		case name == "li":
			b.WriteString("\n- ")
			walk(c, b)
		case name == "br":
			b.WriteString("\n")
		case name == "hr":
			b.WriteString("\n\n")
		case blockElements[name]:
			b.WriteString("\n\n")
			walk(c, b)
			b.WriteString("\n\n")
		default:
			walk(c, b)
		}
	})
}

func toMarkdown(root *goquery.Selection) string {
	var raw strings.Builder
	walk(root, &raw)
	content := multiSpaces.ReplaceAllString(raw.String(), " ")

	// Trim lines and keep at most one blank line between paragraphs.
	var b strings.Builder
	blank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(line)
		blank = false
	}
	return b.String()
}
