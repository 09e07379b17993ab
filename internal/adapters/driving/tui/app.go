package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/keymap"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/messages"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/styles"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/views/collections"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/views/search"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/views/snippet"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	collectionsView *collections.View
	searchView      *search.View
	snippetView     *snippet.View

	currentView messages.ViewType
	// previousView is where esc returns to from help.
	previousView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keymap:          km,
		collectionsView: collections.NewView(s, ports.Collections),
		searchView:      search.NewView(s, km, ports.Collections, ports.topK()),
		snippetView:     snippet.NewView(s),
		currentView:     messages.ViewCollections,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.collectionsView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// WithCollection opens the app directly on the query view for name.
func (a *App) WithCollection(name string) *App {
	if name != "" {
		a.searchView.SetCollection(name)
		a.currentView = messages.ViewSearch
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("weave-rag")}
	if a.currentView == messages.ViewSearch {
		cmds = append(cmds, a.searchView.Init())
	} else {
		cmds = append(cmds, a.collectionsView.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.CollectionSelected:
		a.searchView.SetCollection(msg.Name)
		a.currentView = messages.ViewSearch
		return a, a.searchView.Init()

	case messages.SnippetSelected:
		a.snippetView.SetSnippet(msg.Rank, msg.Snippet)
		a.currentView = messages.ViewSnippet
		return a, nil

	case messages.CollectionsLoaded:
		a.err = msg.Err
		a.collectionsView, cmd = a.collectionsView.Update(msg)
		return a, cmd

	case messages.RetrieveCompleted:
		a.err = msg.Err
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Blink ticks and other internal messages go to the active input.
	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSnippet:
		a.snippetView, cmd = a.snippetView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = a.previousView
		}
	}
	return a, cmd
}

// switchTo changes the active view and returns its start-up command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if view == messages.ViewHelp {
		a.previousView = a.currentView
	}
	a.currentView = view

	switch view {
	case messages.ViewCollections:
		return a.collectionsView.Init()
	case messages.ViewSearch:
		return a.searchView.Init()
	case messages.ViewSnippet, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSnippet:
		return a.snippetView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.collectionsView.View()
	}
}

// viewHelp renders the keybinding reference from the key map.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			b.WriteString(formatBinding(binding))
		}
		b.WriteString("\n")
	}
	b.WriteString("Results are ranked by the collection's vector index; no threshold is applied.\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

func formatBinding(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Collection returns the collection being queried.
func (a *App) Collection() string {
	return a.searchView.Collection()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.collectionsView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.snippetView.SetDimensions(width, height)
}
