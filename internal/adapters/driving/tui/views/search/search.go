// Package search provides the query view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/components/input"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/components/list"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/components/status"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/keymap"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/messages"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/styles"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// View holds the query input, the ranked results and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	collections driving.CollectionService
	collection  string
	topK        int
	ctx         context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a query, false = navigating results
}

// NewView creates a new search view retrieving topK snippets per query.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	collections driving.CollectionService,
	topK int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQueryInput(s),
		list:        list.NewResultList(s),
		statusbar:   status.NewBar(s, km),
		collections: collections,
		topK:        topK,
		ctx:         context.Background(),
		width:       80,
		height:      24,
		focusInput:  true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// SetCollection selects the collection to query and clears previous results.
func (v *View) SetCollection(name string) {
	v.collection = name
	v.statusbar.SetCollection(name)
	v.Reset()
}

// Collection returns the collection being queried.
func (v *View) Collection() string {
	return v.collection
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrieveCompleted:
		v.handleRetrieveCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewCollections}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateRetrieving)
			v.focusInput = false
			v.input.Blur()
			return v, v.retrieve(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "enter":
		if r := v.list.SelectedResult(); r != nil {
			rank, snippet := v.list.Selected()+1, *r
			return v, func() tea.Msg {
				return messages.SnippetSelected{Rank: rank, Snippet: snippet}
			}
		}
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n", "/":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

// retrieve runs the query against the selected collection without a threshold.
func (v *View) retrieve(query string) tea.Cmd {
	collections, name, topK, ctx := v.collections, v.collection, v.topK, v.ctx
	return func() tea.Msg {
		if collections == nil {
			return messages.ErrorOccurred{Err: ErrNoCollectionService}
		}
		results, err := collections.RetrieveScored(ctx, query, name, domain.RetrieveOptions{TopK: topK})
		return messages.RetrieveCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleRetrieveCompleted(msg messages.RetrieveCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	// Let the user edit the query after a failure.
	v.focusInput = true
	v.input.Focus()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)

	title := "weave-rag"
	if v.collection != "" {
		title += " · " + v.collection
	}
	sections = append(sections, v.styles.Title.Render(title), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // header, input and status bar
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current results.
func (v *View) Results() []domain.ScoredText {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to input mode with no results.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.statusbar.Clear()
}
