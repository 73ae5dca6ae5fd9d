// Package practice is the interactive session screen. It drives the
// session controller and renders question, feedback, failure and
// completion states; all session rules live in the controller, the
// screen only reacts to what it reports.
package practice

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/router"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/screens/summary"
	sess "github.com/tanay/prept/internal/session"
	"github.com/tanay/prept/internal/timer"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/layout"
)

// Screen implements screen.Screen for a running session.
type Screen struct {
	ctrl     *sess.Controller
	kind     api.SessionKind
	resumeID string

	input    components.TextInput
	mc       components.MultiChoice
	mcActive bool

	loading         bool
	waiting         bool // a submit/complete/retry command is in flight
	showingFeedback bool
	showQuitConfirm bool

	// reviewing pages through answered questions read-only, practice
	// mode only.
	reviewing   bool
	reviewIndex int

	// ticks is the current timer subscription. It closes whenever the
	// timer stops, so the tick handler reopens it until the session
	// reaches a terminal state.
	ticks      <-chan timer.Tick
	tickCancel context.CancelFunc
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Leaver = (*Screen)(nil)

// New creates the session screen. resumeID restores a saved session when
// one exists; empty starts fresh.
func New(ctrl *sess.Controller, kind api.SessionKind, resumeID string) *Screen {
	return &Screen{
		ctrl:     ctrl,
		kind:     kind,
		resumeID: resumeID,
		loading:  true,
		input:    components.NewTextInput("Type your answer...", true, 20),
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.initCmd()
}

func (s *Screen) Title() string {
	if s.kind == api.KindQuiz {
		return "Quiz"
	}
	return "Practice"
}

// Leave flushes a live snapshot so quitting mid-question loses nothing.
func (s *Screen) Leave() {
	s.unsubscribe()
	s.ctrl.Suspend(context.Background())
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.showQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave session"},
			{Key: "N", Description: "Keep going"},
		}
	case s.ctrl.Progress().Status == sess.StatusFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case s.showingFeedback:
		return []layout.KeyHint{
			{Key: "any key", Description: "Continue"},
		}
	case s.reviewing:
		return []layout.KeyHint{
			{Key: "←→", Description: "Browse"},
			{Key: "Esc", Description: "Back to question"},
		}
	default:
		hints := []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Leave"},
		}
		if s.kind == api.KindPractice && s.ctrl.Progress().CurrentIndex > 0 {
			hints = append([]layout.KeyHint{{Key: "←", Description: "Review"}}, hints...)
		}
		return hints
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case initDoneMsg:
		return s.handleInitDone(msg)

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case completeDoneMsg:
		return s.handleCompleteDone(msg)

	case retryDoneMsg:
		return s.handleRetryDone(msg)

	case timerTickMsg:
		st := s.ctrl.Progress().Status
		if st == sess.StatusCompleted || st == sess.StatusFailed {
			s.unsubscribe()
			return s, nil
		}
		if !msg.Open {
			// Timer stopped between questions; watch for the next one.
			return s, s.subscribe()
		}
		return s, s.listenTicks()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.inputActive() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) inputActive() bool {
	return !s.loading && !s.waiting && !s.showingFeedback &&
		!s.showQuitConfirm && !s.mcActive &&
		s.ctrl.Progress().Status == sess.StatusActive
}

func (s *Screen) handleInitDone(msg initDoneMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	if msg.Err != nil {
		// The controller is now Failed; the error view offers retry.
		return s, nil
	}
	if s.ctrl.Progress().Status == sess.StatusCompleting {
		// Restored right at the finish line.
		s.waiting = true
		return s, s.completeCmd()
	}
	s.syncWidgets()
	return s, tea.Batch(s.input.Init(), s.subscribe())
}

func (s *Screen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false

	if msg.Err != nil {
		var valErr *api.ErrValidation
		if errors.As(msg.Err, &valErr) {
			s.mc.Unlock()
			s.input.SetError(valErr.Message)
			return s, nil
		}
		// Failed state; the error view takes over.
		return s, nil
	}

	if s.kind == api.KindQuiz {
		s.showingFeedback = true
		if msg.Feedback != nil {
			s.mc.Grade(msg.Feedback.CorrectAnswer)
		}
		return s, nil
	}

	// Practice advances automatically inside the controller.
	if s.ctrl.Progress().Status == sess.StatusCompleting {
		s.waiting = true
		return s, s.completeCmd()
	}
	s.syncWidgets()
	return s, s.input.Init()
}

func (s *Screen) handleCompleteDone(msg completeDoneMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false
	if msg.Err != nil {
		return s, nil
	}
	if !msg.Summary.Final() {
		// Grading lags; the view shows a retry hint.
		return s, nil
	}
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(msg.Summary, s.kind)}
	}
}

func (s *Screen) handleRetryDone(msg retryDoneMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false
	if msg.Err != nil {
		return s, nil
	}
	switch s.ctrl.Progress().Status {
	case sess.StatusCompleting:
		s.waiting = true
		return s, s.completeCmd()
	case sess.StatusActive:
		s.syncWidgets()
		if s.kind == api.KindQuiz {
			if _, st, ok := s.ctrl.CurrentQuestion(); ok && st.Answered {
				s.showingFeedback = true
				if st.Feedback != nil {
					s.mc.Grade(st.Feedback.CorrectAnswer)
				}
			}
		}
		return s, s.subscribe()
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.showQuitConfirm {
		switch key {
		case "y", "Y":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.showQuitConfirm = false
		}
		return s, nil
	}

	if s.loading || s.waiting {
		return s, nil
	}

	status := s.ctrl.Progress().Status

	if status == sess.StatusFailed {
		switch key {
		case "r", "R":
			s.waiting = true
			return s, s.retryCmd()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if status == sess.StatusCompleting {
		// Server answered "processing" earlier; any key polls again.
		s.waiting = true
		return s, s.completeCmd()
	}

	if s.showingFeedback {
		s.showingFeedback = false
		return s, s.advance()
	}

	if status != sess.StatusActive {
		return s, nil
	}

	if s.reviewing {
		return s.handleReviewKey(key)
	}

	switch key {
	case "esc":
		s.showQuitConfirm = true
		return s, nil
	case "enter":
		return s, s.submit()
	case "left":
		if s.kind == api.KindPractice && s.ctrl.Progress().CurrentIndex > 0 {
			s.reviewing = true
			s.reviewIndex = s.ctrl.Progress().CurrentIndex - 1
			return s, nil
		}
	}

	if s.mcActive {
		var cmd tea.Cmd
		s.mc, cmd = s.mc.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// handleReviewKey pages through answered questions; anything but the
// arrow keys returns to the live question.
func (s *Screen) handleReviewKey(key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "left", "h":
		if s.reviewIndex > 0 {
			s.reviewIndex--
		}
	case "right", "l":
		s.reviewIndex++
		if s.reviewIndex >= s.ctrl.Progress().CurrentIndex {
			s.reviewing = false
		}
	default:
		s.reviewing = false
	}
	return s, nil
}

// syncWidgets rebuilds the answer widgets for the current question.
func (s *Screen) syncWidgets() {
	q, st, ok := s.ctrl.CurrentQuestion()
	if !ok {
		return
	}
	if q.Kind == api.AnswerChoice {
		s.mcActive = true
		s.mc = components.NewMultiChoice(q.Options)
		if st.SelectedAnswer != "" {
			for i, opt := range q.Options {
				if opt == st.SelectedAnswer {
					s.mc.Selected = i
				}
			}
		}
	} else {
		s.mcActive = false
		s.input = components.NewTextInput("Type your answer...", true, 20)
		if st.SelectedAnswer != "" {
			s.input.Model.SetValue(st.SelectedAnswer)
		}
	}
}

// submit sends the currently entered answer through the controller.
func (s *Screen) submit() tea.Cmd {
	var answer string
	if s.mcActive {
		answer = s.mc.Value()
		s.mc.Lock()
	} else {
		answer = s.input.Value()
	}
	_ = s.ctrl.SelectAnswer(answer)
	s.waiting = true

	ctrl := s.ctrl
	return func() tea.Msg {
		fb, err := ctrl.SubmitAnswer(context.Background(), answer)
		return submitDoneMsg{Feedback: fb, Err: err}
	}
}

// advance moves past the feedback step.
func (s *Screen) advance() tea.Cmd {
	if err := s.ctrl.Advance(context.Background()); err != nil {
		return nil
	}
	if s.ctrl.Progress().Status == sess.StatusCompleting {
		s.waiting = true
		return s.completeCmd()
	}
	s.syncWidgets()
	return s.input.Init()
}

func (s *Screen) initCmd() tea.Cmd {
	ctrl, id, kind := s.ctrl, s.resumeID, s.kind
	return func() tea.Msg {
		err := ctrl.Initialize(context.Background(), id, kind)
		return initDoneMsg{Err: err}
	}
}

func (s *Screen) completeCmd() tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		sum, err := ctrl.Complete(context.Background())
		return completeDoneMsg{Summary: sum, Err: err}
	}
}

func (s *Screen) retryCmd() tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		return retryDoneMsg{Err: ctrl.Retry(context.Background())}
	}
}

// subscribe opens a fresh timer subscription and waits on it. The
// subscription goroutine exits when the timer stops, so while the
// session shows feedback this degenerates into a once-a-second check
// for the next question's timer.
func (s *Screen) subscribe() tea.Cmd {
	s.unsubscribe()
	ctx, cancel := context.WithCancel(context.Background())
	s.tickCancel = cancel
	s.ticks = s.ctrl.Timer().Subscribe(ctx)
	return s.listenTicks()
}

// listenTicks blocks on the current subscription for one reading.
func (s *Screen) listenTicks() tea.Cmd {
	ticks := s.ticks
	return func() tea.Msg {
		tick, ok := <-ticks
		return timerTickMsg{Tick: tick, Open: ok}
	}
}

func (s *Screen) unsubscribe() {
	if s.tickCancel != nil {
		s.tickCancel()
		s.tickCancel = nil
	}
}
