package api

import "context"

// Client is the assessment service contract. The HTTP implementation is
// the production client; tests use the Mock.
type Client interface {
	// FetchQuestions returns the server-selected question list for a new
	// session of the given kind.
	FetchQuestions(ctx context.Context, kind SessionKind) ([]Question, error)

	// SubmitAnswer grades one answer. Repeating a request with the same
	// idempotency token returns the original feedback.
	SubmitAnswer(ctx context.Context, req SubmitRequest) (*Feedback, error)

	// CompleteSession finalizes a session; the server computes the score
	// and streak.
	CompleteSession(ctx context.Context, sessionID string) (*ResultSummary, error)

	// GetUnlockState returns the chapter-gating parameters for a student.
	GetUnlockState(ctx context.Context, studentID string) (*UnlockState, error)

	// UnlockChapterEarly submits a bonus-unlock quiz attempt.
	UnlockChapterEarly(ctx context.Context, attempt UnlockAttempt) (*UnlockOutcome, error)
}
