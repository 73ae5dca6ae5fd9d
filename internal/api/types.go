// Package api is the typed client for the remote assessment service.
// Question selection, scoring and streak computation all happen
// server-side; this package fetches and submits data and turns transport
// failures into a small error taxonomy the rest of the app can act on.
package api

import "time"

// SessionKind selects the assessment flavor the server should serve.
type SessionKind string

const (
	// KindQuiz is a forward-only, feedback-after-each-question session.
	KindQuiz SessionKind = "quiz"

	// KindPractice allows revisiting answered questions read-only.
	KindPractice SessionKind = "practice"
)

// AnswerKind is the expected answer format of a question.
type AnswerKind string

const (
	AnswerChoice  AnswerKind = "multiple-choice"
	AnswerNumeric AnswerKind = "numeric"
)

// Question is immutable once fetched.
type Question struct {
	ID      string     `json:"id"`
	Subject string     `json:"subject"`
	Chapter string     `json:"chapter"`
	Prompt  string     `json:"prompt"`
	Kind    AnswerKind `json:"kind"`

	// Options is the choice set for multiple-choice questions, empty for
	// numeric ones.
	Options []string `json:"options,omitempty"`
}

// Feedback is the server's grading of a single submission.
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// ResultSummary is the server-computed outcome of a completed session.
type ResultSummary struct {
	Score            int     `json:"score"`
	Total            int     `json:"total"`
	Accuracy         float64 `json:"accuracy"`
	TotalTimeSeconds int     `json:"total_time_seconds"`
	Streak           int     `json:"streak"`

	// Status is "final" once scoring is done. The server may answer
	// "processing" when grading lags the completion call; callers retry.
	Status string `json:"status"`
}

// Final reports whether the summary carries settled scores.
func (r ResultSummary) Final() bool { return r.Status != StatusProcessing }

// Result status values.
const (
	StatusFinal      = "final"
	StatusProcessing = "processing"
)

// UnlockState is the server's view of a student's chapter gating.
type UnlockState struct {
	UnlockedChapters []string  `json:"unlocked_chapters"`
	BonusUnlocked    []string  `json:"bonus_unlocked"`
	StartDate        time.Time `json:"start_date"`
	TargetDate       time.Time `json:"target_date"`
	CurriculumOrder  []string  `json:"curriculum_order"`
}

// SubmitRequest carries one answer to the server.
type SubmitRequest struct {
	SessionID      string `json:"session_id"`
	QuestionID     string `json:"question_id"`
	Answer         string `json:"answer"`
	ElapsedSeconds int    `json:"elapsed_seconds"`

	// IdempotencyToken is stable for a (session, question) pair across
	// retries; the server returns the first result for a repeated token
	// instead of double-scoring.
	IdempotencyToken string `json:"idempotency_token"`
}

// UnlockAttempt carries a bonus-unlock quiz submission.
type UnlockAttempt struct {
	StudentID string   `json:"student_id"`
	ChapterID string   `json:"chapter_id"`
	Answers   []string `json:"answers"`
}

// UnlockOutcome is the server's verdict on an unlock attempt.
type UnlockOutcome struct {
	Unlocked bool `json:"unlocked"`
	Correct  int  `json:"correct"`
}
