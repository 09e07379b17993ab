// Package plaintext handles plain text files.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "plaintext".
func (n *Normaliser) Format() string {
	return "plaintext"
}

// Extensions returns the plain text file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text"}
}

// Normalise validates the encoding and normalises line endings.
// Plain text carries no title.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (*driven.NormaliseResult, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrUnsupportedType)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return &driven.NormaliseResult{Content: content}, nil
}
