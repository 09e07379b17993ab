// Package loader reads documents from the local filesystem.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/plaintext"
)

// Ensure FileLoader implements the interface.
var _ driven.DocumentLoader = (*FileLoader)(nil)

// FileLoader loads local files through the normaliser registered for their
// extension. Markdown content is kept raw so the header-aware chunker still
// sees the headings.
type FileLoader struct {
	registry *normalisers.Registry
	fallback driven.Normaliser
}

// NewFileLoader creates a loader for the given normalisers, or the defaults if none are given.
// Files with an unregistered extension are read as plain text.
func NewFileLoader(ns ...driven.Normaliser) *FileLoader {
	if len(ns) == 0 {
		ns = normalisers.Defaults()
	}
	return &FileLoader{
		registry: normalisers.NewRegistry(ns...),
		fallback: plaintext.New(),
	}
}

// Supported reports whether a normaliser is registered for the file extension.
func (l *FileLoader) Supported(path string) bool {
	_, ok := l.registry.Lookup(path)
	return ok
}

// Load reads the file at path.
func (l *FileLoader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = strings.TrimPrefix(path, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	n, ok := l.registry.Lookup(abs)
	if !ok {
		n = l.fallback
	}
	result, err := n.Normalise(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", path, err)
	}

	title := result.Title
	if title == "" {
		title = fileTitle(abs)
	}

	return &domain.Document{
		ID:      uuid.New().String(),
		URI:     "file://" + abs,
		Title:   title,
		Content: result.Content,
		Metadata: map[string]any{
			"format": n.Format(),
			"path":   abs,
			"size":   info.Size(),
		},
	}, nil
}

// ExpandPaths replaces each directory with the supported files beneath it, in
// lexical order. Files named explicitly are kept whatever their extension.
func (l *FileLoader) ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, p)
			}
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if l.Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// fileTitle derives a title from the file name.
func fileTitle(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
