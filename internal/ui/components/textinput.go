package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with application styling.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	errMsg      string
}

// NewTextInput creates a new styled text input.
func NewTextInput(placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if charLimit > 0 {
		ti.CharLimit = charLimit
	}

	return TextInput{
		Model:       ti,
		NumericOnly: numericOnly,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. Numeric inputs swallow keys that can never
// appear in a number, so typos surface immediately instead of at submit.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			key := kmsg.String()
			if len(key) == 1 && !strings.ContainsAny(key, "0123456789.-") {
				return t, nil
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	if t.errMsg != "" {
		t.errMsg = ""
	}
	return t, cmd
}

// View renders the text input with any inline validation message.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.errMsg != "" {
		view += "  " + lipgloss.NewStyle().Foreground(theme.Error).Render(t.errMsg)
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetError shows a validation message next to the input. It clears on
// the next keystroke.
func (t *TextInput) SetError(msg string) {
	t.errMsg = msg
}

// Reset clears the field for the next question.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
	t.errMsg = ""
}
