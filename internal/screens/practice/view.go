package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/tanay/prept/internal/api"
	sess "github.com/tanay/prept/internal/session"
	"github.com/tanay/prept/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	p := s.ctrl.Progress()

	switch {
	case s.showQuitConfirm:
		return renderQuitConfirm(width)
	case s.loading || p.Status == sess.StatusRestoring:
		return renderLoading(width)
	case p.Status == sess.StatusFailed:
		return s.renderFailure(width)
	case p.Status == sess.StatusCompleting:
		return renderCompleting(width, s.waiting)
	case s.showingFeedback:
		return s.renderFeedback(width)
	case s.reviewing:
		return s.renderReview(width)
	}
	return s.renderQuestion(width)
}

func (s *Screen) renderQuestion(width int) string {
	q, st, ok := s.ctrl.CurrentQuestion()
	if !ok {
		return renderLoading(width)
	}
	p := s.ctrl.Progress()

	var b strings.Builder

	elapsed := st.Elapsed
	timerStr := fmt.Sprintf("%d:%02d", int(elapsed.Minutes()), int(elapsed.Seconds())%60)

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s · %s", q.Subject, q.Chapter))

	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Question %d/%d   %s",
			p.CurrentIndex+1, p.Total,
			lipgloss.NewStyle().Foreground(theme.Accent).Render(timerStr),
		))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}

	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	promptStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true)
	b.WriteString(promptStyle.Render(q.Prompt))
	b.WriteString("\n\n")

	if s.waiting {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Checking your answer..."))
		b.WriteString("\n\n")
	}

	if s.mcActive {
		block := s.mc.View()
		if q.Kind == api.AnswerChoice && !s.waiting {
			block += lipgloss.NewStyle().
				Foreground(theme.TextDim).
				Render("\nSelect (1-9) or use arrows + Enter")
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, block))
	} else {
		answerLine := lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + s.input.View())
		b.WriteString(answerLine)
	}

	return b.String()
}

func (s *Screen) renderReview(width int) string {
	q, st, err := s.ctrl.Review(s.reviewIndex)
	if err != nil {
		return renderLoading(width)
	}
	p := s.ctrl.Progress()

	var b strings.Builder

	info := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Reviewing question %d/%d · %s · %s",
			s.reviewIndex+1, p.Total, q.Subject, q.Chapter))
	b.WriteString(info)
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

	verdict := lipgloss.NewStyle().Foreground(theme.Error).Render("wrong")
	if st.Feedback != nil && st.Feedback.Correct {
		verdict = lipgloss.NewStyle().Foreground(theme.Success).Render("correct")
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("You answered %q (%s) in %d:%02d",
			st.SelectedAnswer, verdict,
			int(st.Elapsed.Minutes()), int(st.Elapsed.Seconds())%60)))

	if st.Feedback != nil && st.Feedback.Explanation != "" {
		b.WriteString("\n\n")
		exp := lipgloss.NewStyle().
			Width(min(width-8, 70)).
			Foreground(theme.Text).
			Render(st.Feedback.Explanation)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
	}

	return b.String()
}

func (s *Screen) renderFeedback(width int) string {
	_, st, ok := s.ctrl.CurrentQuestion()
	if !ok || st.Feedback == nil {
		return renderLoading(width)
	}
	fb := st.Feedback

	var b strings.Builder
	b.WriteString("\n\n")

	if fb.Correct {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Success).
			Bold(true).
			Render("Correct!"))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Bold(true).
			Render("Not quite"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("Correct answer: %s", fb.CorrectAnswer)))
	}

	b.WriteString("\n\n")

	if fb.Explanation != "" {
		expStyle := lipgloss.NewStyle().
			Width(min(width-8, 70)).
			Foreground(theme.Text)
		exp := expStyle.Render(fb.Explanation)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Press any key to continue..."))

	return b.String()
}

func (s *Screen) renderFailure(width int) string {
	msg := "Something went wrong."
	if err := s.ctrl.LastError(); err != nil {
		msg = friendlyError(err)
	}

	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Bold(true).
		Render(msg))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Your answer is saved. [R] Retry   [Esc] Back"))
	return b.String()
}

// friendlyError maps the client error taxonomy onto student-facing text.
func friendlyError(err error) string {
	switch {
	case api.IsAuthRequired(err):
		return "Your login token is missing or expired. Set PREPT_TOKEN and try again."
	case api.IsTimeout(err):
		return "The server took too long to respond."
	case api.Retriable(err):
		return "Could not reach the server."
	default:
		return err.Error()
	}
}

func renderCompleting(width int, waiting bool) string {
	text := "All questions answered!\n\nPress any key to get your results."
	if waiting {
		text = "Scoring your session..."
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render("\n\n\n" + text)
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Leave this session?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Your progress and timer will be saved."))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep going"))

	return b.String()
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Preparing your session...")
}
