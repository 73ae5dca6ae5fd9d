package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/router"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/layout"
	"github.com/tanay/prept/internal/ui/theme"
)

// SummaryScreen displays the server-computed session result.
type SummaryScreen struct {
	summary *api.ResultSummary
	kind    api.SessionKind
	btn     components.Button
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *api.ResultSummary, kind api.SessionKind) *SummaryScreen {
	return &SummaryScreen{
		summary: summary,
		kind:    kind,
		btn: components.NewButton("Back to home", true, func() tea.Cmd {
			return func() tea.Msg { return router.PopScreenMsg{} }
		}),
	}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "esc" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	var cmd tea.Cmd
	s.btn, cmd = s.btn.Update(msg)
	return s, cmd
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	title := "Practice complete!"
	if s.kind == api.KindQuiz {
		title = "Quiz complete!"
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(title))
	b.WriteString("\n\n")

	mins := sum.TotalTimeSeconds / 60
	secs := sum.TotalTimeSeconds % 60
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Time on questions: %d:%02d", mins, secs)))
	b.WriteString("\n\n")

	scoreStyle := theme.Correct
	if sum.Total > 0 && sum.Score*2 < sum.Total {
		scoreStyle = theme.Incorrect
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(scoreStyle.Render(fmt.Sprintf("%d / %d", sum.Score, sum.Total))))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("Accuracy", sum.Accuracy, true, min(width-8, 50))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	if sum.Streak > 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Accent).
			Render(fmt.Sprintf("Study streak: %d days", sum.Streak)))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.btn.View()))

	return b.String()
}
