// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/keymap"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/styles"
)

// State represents the current query state for display.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateError      State = "error"
	StateResults    State = "results"
)

// Bar displays the active collection, query state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	collection  string
	message     string
	resultCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	prefix := ""
	if s.collection != "" {
		prefix = s.styles.Subtitle.Render(s.collection) + " "
	}

	switch s.state {
	case StateRetrieving:
		return prefix + s.styles.Muted.Render("Retrieving...")
	case StateError:
		if s.message != "" {
			return prefix + s.styles.Error.Render("Error: "+s.message)
		}
		return prefix + s.styles.Error.Render("Error")
	case StateResults:
		return prefix + s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))
	case StateReady:
	}
	if s.message != "" {
		return prefix + s.styles.Muted.Render(s.message)
	}
	return prefix + s.styles.Muted.Render("Ready")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetCollection sets the collection name shown on the left.
func (s *Bar) SetCollection(name string) {
	s.collection = name
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResultCount sets the result count.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to its default state. The collection is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
