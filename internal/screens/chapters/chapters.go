// Package chapters shows the curriculum with its time-based gating and
// hosts the bonus-unlock quiz for chapters ahead of the schedule.
package chapters

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/clock"
	"github.com/tanay/prept/internal/router"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/ui/components"
	"github.com/tanay/prept/internal/ui/layout"
	"github.com/tanay/prept/internal/unlock"
)

type mode int

const (
	modeList mode = iota
	modeQuiz
	modeOutcome
)

// Screen implements screen.Screen for the chapter overview.
type Screen struct {
	client    api.Client
	studentID string
	clk       clock.Clock

	state  *api.UnlockState
	result unlock.Result
	cursor int
	offset int
	errMsg string
	target string

	mode mode
	quiz quizState
}

// quizState holds the in-progress bonus-unlock quiz.
type quizState struct {
	chapterID string
	questions []api.Question
	answers   []string
	index     int
	loading   bool
	mc        components.MultiChoice
	input     components.TextInput
	mcActive  bool
	outcome   *api.UnlockOutcome
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the chapters screen.
func New(client api.Client, studentID string, clk clock.Clock) *Screen {
	return &Screen{
		client:    client,
		studentID: studentID,
		clk:       clk,
	}
}

// NewUnlock creates the chapters screen and jumps straight into the
// bonus-unlock quiz for the given chapter once state has loaded.
func NewUnlock(client api.Client, studentID string, clk clock.Clock, chapterID string) *Screen {
	s := New(client, studentID, clk)
	s.target = chapterID
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.loadState()
}

func (s *Screen) Title() string {
	if s.mode == modeQuiz {
		return "Unlock Quiz"
	}
	return "Chapters"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeQuiz:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Answer"},
			{Key: "Esc", Description: "Abandon quiz"},
		}
	case modeOutcome:
		return []layout.KeyHint{
			{Key: "any key", Description: "Back to chapters"},
		}
	default:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Unlock early"},
			{Key: "Esc", Description: "Back"},
		}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stateLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.state = msg.State
		s.result = unlock.Compute(scheduleFromState(msg.State), s.clk.Now())
		if s.target != "" {
			target := s.target
			s.target = ""
			return s, s.jumpToTarget(target)
		}
		return s, nil

	case quizReadyMsg:
		return s.handleQuizReady(msg)

	case outcomeMsg:
		return s.handleOutcome(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.mode == modeQuiz && !s.quiz.mcActive && !s.quiz.loading {
		var cmd tea.Cmd
		s.quiz.input, cmd = s.quiz.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.mode {
	case modeOutcome:
		// Any key returns to the refreshed list.
		s.mode = modeList
		s.quiz = quizState{}
		return s, s.loadState()

	case modeQuiz:
		return s.handleQuizKey(msg)
	}

	if s.errMsg != "" {
		if key == "r" || key == "R" {
			s.errMsg = ""
			return s, s.loadState()
		}
		if key == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.state == nil {
		return s, nil
	}

	order := s.state.CurriculumOrder
	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(order)-1 {
			s.cursor++
		}
	case "enter":
		chapter := order[s.cursor]
		if !s.result.Unlocked[chapter] {
			return s, s.startQuiz(chapter)
		}
	}
	return s, nil
}

// jumpToTarget positions the cursor on the requested chapter and starts
// its quiz when it is still locked.
func (s *Screen) jumpToTarget(chapterID string) tea.Cmd {
	for i, id := range s.state.CurriculumOrder {
		if id != chapterID {
			continue
		}
		s.cursor = i
		if s.result.Unlocked[chapterID] {
			s.errMsg = "Chapter " + chapterID + " is already unlocked."
			return nil
		}
		return s.startQuiz(chapterID)
	}
	s.errMsg = "Unknown chapter: " + chapterID
	return nil
}

// loadState fetches the server's unlock state asynchronously.
func (s *Screen) loadState() tea.Cmd {
	client, studentID := s.client, s.studentID
	return func() tea.Msg {
		st, err := client.GetUnlockState(context.Background(), studentID)
		return stateLoadedMsg{State: st, Err: err}
	}
}

// scheduleFromState converts the server payload into a local schedule so
// the gating math runs client-side on the shared clock.
func scheduleFromState(st *api.UnlockState) unlock.Schedule {
	bonus := make(map[string]bool, len(st.BonusUnlocked))
	for _, id := range st.BonusUnlocked {
		bonus[id] = true
	}
	return unlock.Schedule{
		StartDate:       st.StartDate,
		TargetDate:      st.TargetDate,
		CurriculumOrder: st.CurriculumOrder,
		BonusUnlocked:   bonus,
	}
}
