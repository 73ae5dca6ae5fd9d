package submit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanay/prept/internal/api"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestTokenIsStableAcrossAttempts(t *testing.T) {
	a := Token("s1", "q1")
	b := Token("s1", "q1")
	if a != b {
		t.Errorf("tokens differ for the same pair: %s != %s", a, b)
	}
	if a == Token("s1", "q2") {
		t.Error("tokens collide across questions")
	}
	if a == Token("s2", "q1") {
		t.Error("tokens collide across sessions")
	}
}

func TestSubmitDeliversTokenAndElapsed(t *testing.T) {
	mock := api.NewMock()
	mock.QueueFeedback(api.Feedback{Correct: true, CorrectAnswer: "42"}, nil)
	p := New(mock, testLogger())

	fb, err := p.Submit(context.Background(), Request{
		SessionID:  "s1",
		QuestionID: "q1",
		Answer:     "42",
		Elapsed:    17 * time.Second,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !fb.Correct {
		t.Error("expected correct feedback")
	}

	if len(mock.SubmitCalls) != 1 {
		t.Fatalf("submit calls = %d, want 1", len(mock.SubmitCalls))
	}
	call := mock.SubmitCalls[0]
	if call.IdempotencyToken != Token("s1", "q1") {
		t.Errorf("token = %s, want derived token", call.IdempotencyToken)
	}
	if call.ElapsedSeconds != 17 {
		t.Errorf("elapsed = %d, want 17", call.ElapsedSeconds)
	}
}

func TestRetryReusesToken(t *testing.T) {
	mock := api.NewMock()
	mock.QueueFeedback(api.Feedback{}, &api.ErrNetwork{Timeout: true})
	mock.QueueFeedback(api.Feedback{Correct: false, CorrectAnswer: "7"}, nil)
	p := New(mock, testLogger())

	req := Request{SessionID: "s1", QuestionID: "q1", Answer: "9"}

	_, err := p.Submit(context.Background(), req)
	if !api.Retriable(err) {
		t.Fatalf("expected retriable error, got %v", err)
	}

	if _, err := p.Submit(context.Background(), req); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if mock.SubmitCalls[0].IdempotencyToken != mock.SubmitCalls[1].IdempotencyToken {
		t.Error("retry did not reuse the idempotency token")
	}
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingClient{Mock: api.NewMock(), release: block, entered: make(chan struct{})}
	slow.QueueFeedback(api.Feedback{Correct: true}, nil)
	p := New(slow, testLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Submit(context.Background(), Request{SessionID: "s1", QuestionID: "q1"})
	}()

	<-slow.entered
	if _, err := p.Submit(context.Background(), Request{SessionID: "s1", QuestionID: "q1"}); err != ErrInFlight {
		t.Errorf("second submit err = %v, want ErrInFlight", err)
	}
	close(block)
	wg.Wait()

	if p.InFlight() {
		t.Error("expected no submission in flight after completion")
	}
}

// blockingClient parks SubmitAnswer until released, to hold a submission
// in flight.
type blockingClient struct {
	*api.Mock
	release <-chan struct{}
	entered chan struct{}
}

func (b *blockingClient) SubmitAnswer(ctx context.Context, req api.SubmitRequest) (*api.Feedback, error) {
	close(b.entered)
	<-b.release
	return b.Mock.SubmitAnswer(ctx, req)
}
