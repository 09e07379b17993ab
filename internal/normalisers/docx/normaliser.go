// Package docx extracts text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/markdown"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "docx".
func (n *Normaliser) Format() string {
	return "docx"
}

// Extensions returns the Word file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise reads word/document.xml. Each paragraph becomes a block of text,
// and paragraphs styled Title or HeadingN become "#" lines.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (*driven.NormaliseResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive", domain.ErrUnsupportedType)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: docx has no word/document.xml", domain.ErrUnsupportedType)
	}

	content, err := parseDocumentXML(body)
	if err != nil {
		return nil, err
	}

	title := coreTitle(reader)
	if title == "" {
		title = markdown.Title(content)
	}
	return &driven.NormaliseResult{Title: title, Content: content}, nil
}

// readPart returns the named archive member, or nil if it is absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// headingLevel maps a paragraph style to a Markdown heading level, 0 for body text.
func headingLevel(style string) int {
	if style == "Title" {
		return 1
	}
	if len(style) == len("Heading1") && strings.HasPrefix(style, "Heading") {
		if l := int(style[len(style)-1] - '0'); l >= 1 && l <= 6 {
			return l
		}
	}
	return 0
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: parse document.xml: %v", domain.ErrUnsupportedType, err)
	}

	var blocks []string
	for _, para := range doc.Body.Paragraphs {
		var text strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				text.WriteString(t.Content)
			}
		}
		line := strings.TrimSpace(text.String())
		if line == "" {
			continue
		}
		if level := headingLevel(para.Props.Style.Val); level > 0 {
			line = strings.Repeat("#", level) + " " + line
		}
		blocks = append(blocks, line)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// coreTitle returns the title from docProps/core.xml, or "".
func coreTitle(reader *zip.Reader) string {
	data, err := readPart(reader, "docProps/core.xml")
	if err != nil || data == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
