// Package stats renders the locally recorded practice history.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/router"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/store"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/layout"
	"github.com/tanay/prept/internal/ui/theme"
)

// statsLoadedMsg carries the aggregated history.
type statsLoadedMsg struct {
	Stats *store.Stats
	Err   error
}

// Screen implements screen.Screen for the stats view.
type Screen struct {
	events store.EventRepo
	stats  *store.Stats
	errMsg string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the stats screen.
func New(events store.EventRepo) *Screen {
	return &Screen{events: events}
}

func (s *Screen) Init() tea.Cmd {
	events := s.events
	return func() tea.Msg {
		st, err := events.Stats(context.Background())
		return statsLoadedMsg{Stats: st, Err: err}
	}
}

func (s *Screen) Title() string {
	return "My Stats"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.stats = msg.Stats
		return s, nil

	case tea.KeyMsg:
		if s.errMsg != "" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\n  %s\n\n  Press any key to go back.", s.errMsg))
	}
	if s.stats == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  Crunching numbers...")
	}

	st := s.stats
	var b strings.Builder
	b.WriteString("\n")

	if st.TotalAnswers == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("No practice history yet. Start a session!"))
		return b.String()
	}

	headline := fmt.Sprintf("Sessions finished: %d      Questions answered: %d",
		st.SessionsCompleted, st.TotalAnswers)
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(headline))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("Overall accuracy", st.Accuracy(), true, min(width-8, 60))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("By subject")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))))
	b.WriteString("\n\n")

	for _, sub := range st.Subjects {
		if sub.Attempted == 0 {
			continue
		}
		acc := float64(sub.Correct) / float64(sub.Attempted)
		line := fmt.Sprintf("%-14s %3d answered   %3.0f%% correct   %4.1fs avg",
			sub.Subject, sub.Attempted, acc*100, sub.AvgSeconds)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Text).Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}
