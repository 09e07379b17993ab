package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/docx"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/eml"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/html"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/markdown"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/pdf"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/plaintext"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/xlsx"
)

// Defaults returns the built-in normalisers.
func Defaults() []driven.Normaliser {
	return []driven.Normaliser{
		markdown.New(),
		plaintext.New(),
		html.New(),
		docx.New(),
		eml.New(),
		pdf.New(),
		xlsx.New(),
	}
}

// Registry maps file extensions to normalisers.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry from ns. A later normaliser claiming an
// extension replaces an earlier one.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range ns {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// Lookup returns the normaliser for path's extension.
func (r *Registry) Lookup(path string) (driven.Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Extensions returns every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
