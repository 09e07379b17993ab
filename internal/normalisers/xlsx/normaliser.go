// Package xlsx renders Excel workbooks as Markdown tables.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Excel workbooks.
type Normaliser struct{}

// New creates a new workbook normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns "xlsx".
func (n *Normaliser) Format() string {
	return "xlsx"
}

// Extensions returns the workbook file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Normalise writes each non-empty sheet as a "## name" section holding a
// Markdown table. The first row is the table header. The title comes from
// the workbook properties.
func (n *Normaliser) Normalise(_ context.Context, data []byte) (*driven.NormaliseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrUnsupportedType, err)
	}
	defer f.Close()

	var sections []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %s: %v", domain.ErrUnsupportedType, sheet, err)
		}
		if table := renderTable(rows); table != "" {
			sections = append(sections, "## "+sheet+"\n\n"+table)
		}
	}

	title := ""
	if props, err := f.GetDocProps(); err == nil && props != nil {
		title = strings.TrimSpace(props.Title)
	}
	return &driven.NormaliseResult{
		Title:   title,
		Content: strings.Join(sections, "\n\n"),
	}, nil
}

// renderTable drops blank rows and pads the rest to the widest row.
func renderTable(rows [][]string) string {
	var kept [][]string
	width := 0
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		kept = append(kept, row)
		width = max(width, len(row))
	}
	if len(kept) == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range kept {
		b.WriteString("|")
		for c := 0; c < width; c++ {
			cell := ""
			if c < len(row) {
				cell = escapeCell(row[c])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func escapeCell(s string) string {
	return strings.TrimSpace(cellReplacer.Replace(s))
}
