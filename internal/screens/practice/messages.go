package practice

import (
	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/timer"
)

// initDoneMsg is sent when session initialization (restore or fresh
// fetch) has finished.
type initDoneMsg struct {
	Err error
}

// submitDoneMsg is sent when a submission attempt has settled.
type submitDoneMsg struct {
	Feedback *api.Feedback
	Err      error
}

// completeDoneMsg is sent when the completion call has settled.
type completeDoneMsg struct {
	Summary *api.ResultSummary
	Err     error
}

// retryDoneMsg is sent when a retry of the failed operation has settled.
type retryDoneMsg struct {
	Err error
}

// timerTickMsg carries one reading from the timer subscription. Open
// is false when the subscription closed because the timer stopped.
type timerTickMsg struct {
	Tick timer.Tick
	Open bool
}
