// Package pdf extracts the text layer of PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// maxTitleLength bounds a first line taken as the title.
const maxTitleLength = 200

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "pdf".
func (n *Normaliser) Format() string {
	return "pdf"
}

// Extensions returns the PDF file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Normalise reads the plain text of every page, separating pages with a blank
// line. Scanned pages without a text layer contribute nothing.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (result *driven.NormaliseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: malformed pdf: %v", domain.ErrUnsupportedType, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", domain.ErrUnsupportedType, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrUnsupportedType, i, err)
		}
		if text = cleanText(text); text != "" {
			pages = append(pages, text)
		}
	}

	content := strings.Join(pages, "\n\n")
	title := strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
	if title == "" {
		title = extractTitle(content)
	}
	return &driven.NormaliseResult{Title: title, Content: content}, nil
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// extractTitle returns the first non-blank line short enough to be a title.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}
	return ""
}
