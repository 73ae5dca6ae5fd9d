package chapters

import "github.com/tanay/prept/internal/api"

// stateLoadedMsg is sent when the server's unlock state has arrived.
type stateLoadedMsg struct {
	State *api.UnlockState
	Err   error
}

// quizReadyMsg is sent when the bonus-unlock quiz questions have arrived.
type quizReadyMsg struct {
	Questions []api.Question
	Err       error
}

// outcomeMsg is sent when the server has graded an unlock attempt.
type outcomeMsg struct {
	Outcome *api.UnlockOutcome
	Err     error
}
