package chapters

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/unlock"
)

// startQuiz begins the bonus-unlock quiz for a gated chapter.
func (s *Screen) startQuiz(chapterID string) tea.Cmd {
	s.mode = modeQuiz
	s.quiz = quizState{
		chapterID: chapterID,
		loading:   true,
	}

	client := s.client
	return func() tea.Msg {
		qs, err := client.FetchQuestions(context.Background(), api.KindQuiz)
		return quizReadyMsg{Questions: qs, Err: err}
	}
}

func (s *Screen) handleQuizReady(msg quizReadyMsg) (screen.Screen, tea.Cmd) {
	s.quiz.loading = false
	if msg.Err != nil {
		s.mode = modeList
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	qs := msg.Questions
	if len(qs) > unlock.QuizLength {
		qs = qs[:unlock.QuizLength]
	}
	s.quiz.questions = qs
	s.quiz.answers = make([]string, 0, len(qs))
	s.quiz.index = 0
	s.syncQuizWidgets()
	return s, s.quiz.input.Init()
}

func (s *Screen) handleQuizKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.quiz.loading {
		if key == "esc" {
			s.mode = modeList
			s.quiz = quizState{}
		}
		return s, nil
	}

	switch key {
	case "esc":
		// Abandoning forfeits the attempt; nothing was submitted yet.
		s.mode = modeList
		s.quiz = quizState{}
		return s, nil
	case "enter":
		return s.answerCurrent()
	}

	if s.quiz.mcActive {
		var cmd tea.Cmd
		s.quiz.mc, cmd = s.quiz.mc.Update(msg)
		return s, cmd
	}
	var cmd tea.Cmd
	s.quiz.input, cmd = s.quiz.input.Update(msg)
	return s, cmd
}

// answerCurrent records the answer and either shows the next question or
// submits the whole attempt. Grading is server-side and all-at-once, so
// there is no per-question feedback here.
func (s *Screen) answerCurrent() (screen.Screen, tea.Cmd) {
	var answer string
	if s.quiz.mcActive {
		answer = s.quiz.mc.Value()
	} else {
		answer = strings.TrimSpace(s.quiz.input.Value())
	}
	if answer == "" {
		s.quiz.input.SetError("enter an answer first")
		return s, nil
	}

	s.quiz.answers = append(s.quiz.answers, answer)
	s.quiz.index++

	if s.quiz.index < len(s.quiz.questions) {
		s.syncQuizWidgets()
		return s, s.quiz.input.Init()
	}

	s.quiz.loading = true
	client := s.client
	attempt := api.UnlockAttempt{
		StudentID: s.studentID,
		ChapterID: s.quiz.chapterID,
		Answers:   s.quiz.answers,
	}
	return s, func() tea.Msg {
		out, err := client.UnlockChapterEarly(context.Background(), attempt)
		return outcomeMsg{Outcome: out, Err: err}
	}
}

func (s *Screen) handleOutcome(msg outcomeMsg) (screen.Screen, tea.Cmd) {
	s.quiz.loading = false
	if msg.Err != nil {
		s.mode = modeList
		s.errMsg = msg.Err.Error()
		s.quiz = quizState{}
		return s, nil
	}
	s.quiz.outcome = msg.Outcome
	s.mode = modeOutcome
	return s, nil
}

func (s *Screen) syncQuizWidgets() {
	q := s.quiz.questions[s.quiz.index]
	if q.Kind == api.AnswerChoice {
		s.quiz.mcActive = true
		s.quiz.mc = components.NewMultiChoice(q.Options)
	} else {
		s.quiz.mcActive = false
		s.quiz.input = components.NewTextInput("Type your answer...", true, 20)
	}
}
