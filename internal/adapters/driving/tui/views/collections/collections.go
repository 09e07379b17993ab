// Package collections provides the collection picker for the TUI.
package collections

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/messages"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/styles"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// View lists stored collections and lets the user pick one to query.
type View struct {
	styles  *styles.Styles
	service driving.CollectionService
	ctx     context.Context

	items    []driving.CollectionInfo
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new collection picker.
func NewView(s *styles.Styles, service driving.CollectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the collection list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	service, ctx := v.service, v.ctx
	return func() tea.Msg {
		infos, err := service.ListCollections(ctx)
		return messages.CollectionsLoaded{Collections: infos, Err: err}
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.CollectionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.items = msg.Collections
			if v.selected >= len(v.items) {
				v.selected = 0
			}
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "enter":
			if len(v.items) == 0 {
				return v, nil
			}
			name := v.items[v.selected].Name
			return v, func() tea.Msg {
				return messages.CollectionSelected{Name: name}
			}
		case "r":
			return v, v.Init()
		case "?":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewHelp}
			}
		case "q":
			return v, tea.Quit
		}
	}
	return v, nil
}

// View renders the picker.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("weave-rag"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Collections"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading collections..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No collections. Create one with 'weave-rag collection create <name> <paths>'."))
		b.WriteString("\n")
	default:
		for i, item := range v.items {
			line := fmt.Sprintf("%-30s %d records", item.Name, item.Count)
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Query  [r] Reload  [?] Help  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Items returns the loaded collections.
func (v *View) Items() []driving.CollectionInfo {
	return v.items
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
