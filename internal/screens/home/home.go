// Package home is the landing menu. Navigation targets are injected so
// the menu stays free of screen construction details.
package home

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/theme"
)

// Actions are the navigation commands behind each menu entry. Resume
// receives the saved session's id and kind once the lookup has landed.
type Actions struct {
	Resume   func(sessionID, kind string) tea.Cmd
	Practice func() tea.Cmd
	Quiz     func() tea.Cmd
	Chapters func() tea.Cmd
	Stats    func() tea.Cmd
}

// ResumeInfoMsg tells the home screen whether a saved session exists.
type ResumeInfoMsg struct {
	SessionID string
	Kind      string
}

// HomeScreen is the landing menu.
type HomeScreen struct {
	menu       components.Menu
	actions    Actions
	resumeID   string
	resumeKind string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(actions Actions) *HomeScreen {
	h := &HomeScreen{actions: actions}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, 0, 6)
	if h.resumeID != "" {
		id, kind := h.resumeID, h.resumeKind
		items = append(items, components.MenuItem{
			Label:  "Resume session",
			Detail: fmt.Sprintf("(%s in progress)", kind),
			Action: func() tea.Cmd { return h.actions.Resume(id, kind) },
		})
	}
	items = append(items,
		components.MenuItem{Label: "Practice", Action: h.actions.Practice},
		components.MenuItem{Label: "Quiz", Action: h.actions.Quiz},
		components.MenuItem{Label: "Chapters", Action: h.actions.Chapters},
		components.MenuItem{Label: "My Stats", Action: h.actions.Stats},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case ResumeInfoMsg:
		h.resumeID = msg.SessionID
		h.resumeKind = msg.Kind
		h.menu = components.NewMenu(h.items())
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var s string

	s += "\n"
	s += lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render("Prept")
	s += "\n"
	s += lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Steady practice beats cramming")
	s += "\n\n"

	s += lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View())
	return s
}
