// Package session drives a practice session through its state machine:
// question to question, per-question timing, at-most-once submission,
// and snapshot persistence that survives interruption at any point.
package session

import (
	"time"

	"github.com/tanay/prept/internal/api"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusRestoring
	StatusActive
	StatusSubmitting
	StatusCompleting
	StatusCompleted
	StatusFailed
)

// String returns the snapshot/display name of the status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRestoring:
		return "restoring"
	case StatusActive:
		return "active"
	case StatusSubmitting:
		return "submitting"
	case StatusCompleting:
		return "completing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func statusFromString(s string) (Status, bool) {
	switch s {
	case "restoring":
		return StatusRestoring, true
	case "active":
		return StatusActive, true
	case "submitting":
		return StatusSubmitting, true
	case "completing":
		return StatusCompleting, true
	case "completed":
		return StatusCompleted, true
	case "failed":
		return StatusFailed, true
	default:
		return StatusUninitialized, false
	}
}

// QuestionState is the mutable per-question record. Once Answered it is
// immutable.
type QuestionState struct {
	// StartedAt is when the question first became current.
	StartedAt time.Time

	// Elapsed is active time on the question. It grows only while the
	// question is current and unanswered, and freezes at submission.
	Elapsed time.Duration

	// SelectedAnswer is the picked-but-not-yet-confirmed answer, then
	// the submitted one.
	SelectedAnswer string

	// Answered is set once the server graded the submission.
	Answered bool

	// Feedback is the server's grading, present once Answered.
	Feedback *api.Feedback

	// timerStopped marks a frozen timer on an unanswered question: the
	// signature of a submission whose outcome was lost to a crash.
	timerStopped bool
}

// Session is the unit of persistence: one run of an assessment from
// first question to completion.
type Session struct {
	ID           string
	Kind         api.SessionKind
	Questions    []api.Question
	States       []*QuestionState
	CurrentIndex int
	Status       Status
}

// ForwardOnly reports whether revisiting earlier questions is
// disallowed for this session kind.
func (s *Session) ForwardOnly() bool { return s.Kind == api.KindQuiz }

// FeedbackStep reports whether the session pauses on each answered
// question to show feedback before advancing.
func (s *Session) FeedbackStep() bool { return s.Kind == api.KindQuiz }

// Current returns the current question and its state.
func (s *Session) Current() (api.Question, *QuestionState) {
	return s.Questions[s.CurrentIndex], s.States[s.CurrentIndex]
}

// AnsweredCount returns how many questions have been graded.
func (s *Session) AnsweredCount() int {
	n := 0
	for _, st := range s.States {
		if st.Answered {
			n++
		}
	}
	return n
}

// Progress is a read-only view for rendering.
type Progress struct {
	SessionID    string
	Status       Status
	CurrentIndex int
	Total        int
	Answered     int
	Elapsed      time.Duration
}
