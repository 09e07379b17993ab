// Package snippet provides a scrollable view of one retrieved snippet.
package snippet

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/messages"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/styles"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// View shows the full text of a snippet with its rank and similarity.
type View struct {
	styles *styles.Styles

	rank         int
	snippet      *domain.ScoredText
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new snippet view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// SetSnippet shows snippet, scrolled to the top.
func (v *View) SetSnippet(rank int, snippet domain.ScoredText) {
	v.rank = rank
	v.snippet = &snippet
	v.scrollOffset = 0
	v.wrapContent()
}

// Update handles messages for the snippet view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}
	return v, nil
}

// wrapContent splits the snippet into lines no wider than the view.
func (v *View) wrapContent() {
	v.lines = nil
	if v.snippet == nil || v.snippet.Text == "" {
		return
	}

	width := max(v.width-4, 20)
	for _, line := range strings.Split(v.snippet.Text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			v.lines = append(v.lines, string(runes[:width]))
			runes = runes[width:]
		}
		v.lines = append(v.lines, string(runes))
	}
}

// visibleLines returns the number of content lines that fit.
func (v *View) visibleLines() int {
	// title, separator, scroll indicator and help
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the snippet.
func (v *View) View() string {
	var b strings.Builder

	title := "Snippet"
	if v.snippet != nil {
		title = fmt.Sprintf("Result #%d  ", v.rank) +
			v.styles.Score(v.snippet.Similarity).Render(fmt.Sprintf("%.4f", v.snippet.Similarity))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No content)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for _, line := range v.lines[v.scrollOffset:end] {
		if strings.HasPrefix(line, "#") {
			b.WriteString(v.styles.Subtitle.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d",
			v.scrollOffset+1, end, len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions and rewraps the text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
}

// Snippet returns the snippet being shown, or nil.
func (v *View) Snippet() *domain.ScoredText {
	return v.snippet
}

// Lines returns the wrapped lines.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the index of the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
