package api

import (
	"context"
	"sync"
)

// Mock is a deterministic Client for tests. Each method pops canned
// results in FIFO order and records the calls it receives.
type Mock struct {
	mu sync.Mutex

	Questions   []Question
	FetchErr    error
	FetchCalls  int
	Feedbacks   []mockResult[Feedback]
	SubmitCalls []SubmitRequest
	Summaries   []mockResult[ResultSummary]
	CompleteIDs []string
	States      []mockResult[UnlockState]
	Outcomes    []mockResult[UnlockOutcome]
	Attempts    []UnlockAttempt
}

type mockResult[T any] struct {
	val T
	err error
}

var _ Client = (*Mock)(nil)

// NewMock creates an empty Mock; queue outcomes with the Queue* helpers.
func NewMock() *Mock { return &Mock{} }

// QueueFeedback adds a SubmitAnswer result.
func (m *Mock) QueueFeedback(fb Feedback, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Feedbacks = append(m.Feedbacks, mockResult[Feedback]{val: fb, err: err})
}

// QueueSummary adds a CompleteSession result.
func (m *Mock) QueueSummary(sum ResultSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries = append(m.Summaries, mockResult[ResultSummary]{val: sum, err: err})
}

// QueueUnlockState adds a GetUnlockState result.
func (m *Mock) QueueUnlockState(st UnlockState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.States = append(m.States, mockResult[UnlockState]{val: st, err: err})
}

// QueueUnlockOutcome adds an UnlockChapterEarly result.
func (m *Mock) QueueUnlockOutcome(o UnlockOutcome, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes = append(m.Outcomes, mockResult[UnlockOutcome]{val: o, err: err})
}

func (m *Mock) FetchQuestions(_ context.Context, _ SessionKind) ([]Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Questions, nil
}

func (m *Mock) SubmitAnswer(_ context.Context, req SubmitRequest) (*Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls = append(m.SubmitCalls, req)
	if len(m.Feedbacks) == 0 {
		return nil, &ErrNetwork{Err: errNoCannedResult}
	}
	r := m.Feedbacks[0]
	m.Feedbacks = m.Feedbacks[1:]
	if r.err != nil {
		return nil, r.err
	}
	fb := r.val
	return &fb, nil
}

func (m *Mock) CompleteSession(_ context.Context, sessionID string) (*ResultSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteIDs = append(m.CompleteIDs, sessionID)
	if len(m.Summaries) == 0 {
		return nil, &ErrNetwork{Err: errNoCannedResult}
	}
	r := m.Summaries[0]
	m.Summaries = m.Summaries[1:]
	if r.err != nil {
		return nil, r.err
	}
	sum := r.val
	return &sum, nil
}

func (m *Mock) GetUnlockState(_ context.Context, _ string) (*UnlockState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.States) == 0 {
		return nil, &ErrNetwork{Err: errNoCannedResult}
	}
	r := m.States[0]
	m.States = m.States[1:]
	if r.err != nil {
		return nil, r.err
	}
	st := r.val
	return &st, nil
}

func (m *Mock) UnlockChapterEarly(_ context.Context, attempt UnlockAttempt) (*UnlockOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, attempt)
	if len(m.Outcomes) == 0 {
		return nil, &ErrNetwork{Err: errNoCannedResult}
	}
	r := m.Outcomes[0]
	m.Outcomes = m.Outcomes[1:]
	if r.err != nil {
		return nil, r.err
	}
	o := r.val
	return &o, nil
}

// SubmitCount returns how many SubmitAnswer calls were made.
func (m *Mock) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SubmitCalls)
}

var errNoCannedResult = errNoResult{}

type errNoResult struct{}

func (errNoResult) Error() string { return "mock: no canned result queued" }
