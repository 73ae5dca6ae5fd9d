package chapters

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/theme"
	"github.com/tanay/prept/internal/unlock"
)

func (s *Screen) View(width, height int) string {
	switch s.mode {
	case modeQuiz:
		return s.renderQuiz(width)
	case modeOutcome:
		return s.renderOutcome(width)
	}
	return s.renderList(width, height)
}

func (s *Screen) renderList(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\n  %s\n\n  [R] Retry   [Esc] Back", s.errMsg))
	}
	if s.state == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  Loading your curriculum...")
	}

	var b strings.Builder

	info := fmt.Sprintf("  Month %d of %d · %d of %d chapters open",
		s.result.MonthsElapsed, s.result.TotalMonths,
		len(s.result.Unlocked), len(s.state.CurriculumOrder))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	pct := 0.0
	if n := len(s.state.CurriculumOrder); n > 0 {
		pct = float64(len(s.result.Unlocked)) / float64(n)
	}
	bar := components.NewProgressBar("", pct, true, min(width-8, 50))
	b.WriteString("  " + bar.View())
	b.WriteString("\n\n")

	// Keep the cursor visible in tall curricula.
	visible := height - 8
	if visible < 3 {
		visible = 3
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}

	order := s.state.CurriculumOrder
	end := min(s.offset+visible, len(order))
	bonus := make(map[string]bool, len(s.state.BonusUnlocked))
	for _, id := range s.state.BonusUnlocked {
		bonus[id] = true
	}

	for i := s.offset; i < end; i++ {
		id := order[i]
		b.WriteString(s.renderChapterLine(i, id, bonus[id]))
		b.WriteString("\n")
	}

	return b.String()
}

func (s *Screen) renderChapterLine(i int, id string, isBonus bool) string {
	label := fmt.Sprintf("%2d. %s", i+1, id)
	cursor := "    "
	if i == s.cursor {
		cursor = "  ▸ "
	}

	var status string
	switch {
	case isBonus:
		status = lipgloss.NewStyle().Foreground(theme.Accent).Render("unlocked early")
	case s.result.Unlocked[id]:
		status = lipgloss.NewStyle().Foreground(theme.Success).Render("open")
	default:
		status = lipgloss.NewStyle().Foreground(theme.Locked).Render("locked · quiz to unlock")
	}

	style := lipgloss.NewStyle().Foreground(theme.Text)
	if !s.result.Unlocked[id] {
		style = lipgloss.NewStyle().Foreground(theme.Locked)
	}
	if i == s.cursor {
		style = style.Bold(true)
		if s.result.Unlocked[id] {
			style = style.Foreground(theme.Primary)
		}
	}

	return cursor + style.Render(label) + "  " + status
}

func (s *Screen) renderQuiz(width int) string {
	if s.quiz.loading {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  One moment...")
	}

	q := s.quiz.questions[s.quiz.index]

	var b strings.Builder
	info := fmt.Sprintf("  Unlock %s · question %d/%d · %d correct needed",
		s.quiz.chapterID, s.quiz.index+1, len(s.quiz.questions), unlock.QuizPassThreshold)
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Prompt))
	b.WriteString("\n\n")

	if s.quiz.mcActive {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.quiz.mc.View()))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + s.quiz.input.View()))
	}

	return b.String()
}

func (s *Screen) renderOutcome(width int) string {
	out := s.quiz.outcome
	if out == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n\n")

	if out.Unlocked {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Success).
			Bold(true).
			Render(fmt.Sprintf("%s unlocked!", s.quiz.chapterID)))
	} else {
		// The server can refuse even a passing score, for example when
		// the chapter was unlocked by another device meanwhile.
		msg := "Not this time"
		if unlock.QuizPassed(out.Correct) {
			msg = "Quiz passed, but the chapter could not be unlocked"
		}
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Bold(true).
			Render(msg))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d of %d correct (need %d)",
			out.Correct, unlock.QuizLength, unlock.QuizPassThreshold)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Press any key to continue"))

	return b.String()
}
