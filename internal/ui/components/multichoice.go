package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Grading happens elsewhere;
// after Grade is called the correct option is highlighted against the
// chosen one.
type MultiChoice struct {
	choices       []string
	Selected      int
	locked        bool
	chosenIndex   int
	correctAnswer string
}

// NewMultiChoice creates a selector over the given options.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{
		choices:     options,
		Selected:    0,
		chosenIndex: -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation. Number keys jump straight to an
// option; locked selectors ignore input.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.locked {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.choices)-1 {
			m.Selected++
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			idx := int(key[0] - '1')
			if idx < len(m.choices) {
				m.Selected = idx
			}
		}
	}

	return m, nil
}

// Value returns the currently selected option text.
func (m MultiChoice) Value() string {
	if m.Selected < 0 || m.Selected >= len(m.choices) {
		return ""
	}
	return m.choices[m.Selected]
}

// Lock freezes the selection while a submission is outstanding.
func (m *MultiChoice) Lock() {
	m.locked = true
	m.chosenIndex = m.Selected
}

// Unlock re-enables the selector after a rejected submission.
func (m *MultiChoice) Unlock() {
	m.locked = false
	m.chosenIndex = -1
	m.correctAnswer = ""
}

// Grade records the server's correct answer for rendering.
func (m *MultiChoice) Grade(correctAnswer string) {
	m.locked = true
	if m.chosenIndex < 0 {
		m.chosenIndex = m.Selected
	}
	m.correctAnswer = correctAnswer
}

// View renders the options.
func (m MultiChoice) View() string {
	var s string
	graded := m.correctAnswer != ""

	for i, opt := range m.choices {
		prefix := "  "
		if i == m.Selected && !m.locked {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt)

		switch {
		case graded && opt == m.correctAnswer:
			s += lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(line) + "\n"
		case graded && i == m.chosenIndex:
			s += lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(line) + "\n"
		case graded:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == m.Selected:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}

	return s
}
