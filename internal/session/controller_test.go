package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/clock"
	"github.com/tanay/prept/internal/store"
	"github.com/tanay/prept/internal/submit"
)

func testQuestions() []api.Question {
	return []api.Question{
		{ID: "q1", Subject: "math", Chapter: "algebra", Prompt: "2+2?", Kind: api.AnswerChoice, Options: []string{"3", "4", "5"}},
		{ID: "q2", Subject: "math", Chapter: "algebra", Prompt: "x=?", Kind: api.AnswerNumeric},
		{ID: "q3", Subject: "physics", Chapter: "optics", Prompt: "pick one", Kind: api.AnswerChoice, Options: []string{"a", "b"}},
	}
}

type testEnv struct {
	mock  *api.Mock
	store *store.Store
	clk   *clock.Fake
	ctrl  *Controller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	env := &testEnv{
		mock:  api.NewMock(),
		store: s,
		clk:   clock.NewFake(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)),
	}
	env.mock.Questions = testQuestions()
	env.ctrl = env.newController()
	return env
}

// newController builds a fresh controller over the same store and mock,
// simulating a process restart.
func (e *testEnv) newController() *Controller {
	return NewController(
		e.mock,
		submit.New(e.mock, zerolog.Nop()),
		e.store.SessionRepo(),
		e.store.EventRepo(),
		e.clk,
		DefaultConfig(),
		zerolog.Nop(),
	)
}

func mustInit(t *testing.T, c *Controller, id string, kind api.SessionKind) {
	t.Helper()
	if err := c.Initialize(context.Background(), id, kind); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func TestFreshStartBecomesActive(t *testing.T) {
	env := newTestEnv(t)
	mustInit(t, env.ctrl, "", api.KindPractice)

	p := env.ctrl.Progress()
	if p.Status != StatusActive {
		t.Fatalf("status = %s, want active", p.Status)
	}
	if p.Total != 3 || p.CurrentIndex != 0 {
		t.Errorf("progress = %d/%d, want 0/3", p.CurrentIndex, p.Total)
	}
	if p.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if !env.ctrl.Timer().Running() {
		t.Error("timer should be running on the first question")
	}

	snap, err := env.store.SessionRepo().Load(context.Background(), p.SessionID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a persisted snapshot after start")
	}
}

func TestFetchFailureEntersFailedAndRetryRecovers(t *testing.T) {
	env := newTestEnv(t)
	env.mock.FetchErr = &api.ErrNetwork{Err: errors.New("refused")}

	err := env.ctrl.Initialize(context.Background(), "", api.KindPractice)
	if err == nil {
		t.Fatal("expected initialize to fail")
	}
	if env.ctrl.Progress().Status != StatusFailed {
		t.Fatalf("status = %s, want failed", env.ctrl.Progress().Status)
	}
	if env.ctrl.LastError() == nil {
		t.Error("expected a retained error")
	}

	env.mock.FetchErr = nil
	if err := env.ctrl.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if env.ctrl.Progress().Status != StatusActive {
		t.Fatalf("status after retry = %s, want active", env.ctrl.Progress().Status)
	}
	if env.ctrl.LastError() != nil {
		t.Error("retained error should clear on retry")
	}
}

func TestRepeatedSubmitSendsOneRequest(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{Correct: true, CorrectAnswer: "4"}, nil)
	mustInit(t, env.ctrl, "", api.KindQuiz)

	ctx := context.Background()
	fb1, err := env.ctrl.SubmitAnswer(ctx, "4")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	fb2, err := env.ctrl.SubmitAnswer(ctx, "4")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if env.mock.SubmitCount() != 1 {
		t.Fatalf("submit count = %d, want 1", env.mock.SubmitCount())
	}
	if fb1 != fb2 {
		t.Error("second call should return the cached feedback")
	}
}

func TestInvalidNumericAnswerNeverReachesNetwork(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{Correct: true}, nil)
	mustInit(t, env.ctrl, "", api.KindPractice)
	ctx := context.Background()

	// Advance onto the numeric question.
	if _, err := env.ctrl.SubmitAnswer(ctx, "4"); err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	submitsBefore := env.mock.SubmitCount()

	_, err := env.ctrl.SubmitAnswer(ctx, "not a number")
	var valErr *api.ErrValidation
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if env.mock.SubmitCount() != submitsBefore {
		t.Error("invalid answer must not produce a network call")
	}
	if got := env.ctrl.Progress().Status; got != StatusActive {
		t.Errorf("status = %s, want active", got)
	}
	if !env.ctrl.Timer().Running() {
		t.Error("timer must keep running after a local rejection")
	}
}

func TestSubmitElapsedComesFromFrozenTimer(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{Correct: true}, nil)
	mustInit(t, env.ctrl, "", api.KindQuiz)

	env.clk.Advance(37 * time.Second)
	if _, err := env.ctrl.SubmitAnswer(context.Background(), "4"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	call := env.mock.SubmitCalls[0]
	if call.ElapsedSeconds != 37 {
		t.Errorf("elapsed = %ds, want 37s", call.ElapsedSeconds)
	}
	if call.IdempotencyToken == "" {
		t.Error("expected an idempotency token")
	}
}

func TestSubmitFailureThenRetryReusesToken(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{}, &api.ErrNetwork{Timeout: true, Err: errors.New("timeout")})
	env.mock.QueueFeedback(api.Feedback{Correct: false, CorrectAnswer: "4"}, nil)
	mustInit(t, env.ctrl, "", api.KindQuiz)
	ctx := context.Background()

	env.clk.Advance(10 * time.Second)
	if _, err := env.ctrl.SubmitAnswer(ctx, "3"); err == nil {
		t.Fatal("expected the first submit to fail")
	}
	if env.ctrl.Progress().Status != StatusFailed {
		t.Fatalf("status = %s, want failed", env.ctrl.Progress().Status)
	}

	// Clock keeps moving while the student stares at the error.
	env.clk.Advance(30 * time.Second)
	if err := env.ctrl.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}

	calls := env.mock.SubmitCalls
	if len(calls) != 2 {
		t.Fatalf("submit count = %d, want 2", len(calls))
	}
	if calls[0].IdempotencyToken != calls[1].IdempotencyToken {
		t.Error("retry must reuse the original idempotency token")
	}
	if calls[1].ElapsedSeconds != calls[0].ElapsedSeconds {
		t.Errorf("retry elapsed = %ds, want the frozen %ds", calls[1].ElapsedSeconds, calls[0].ElapsedSeconds)
	}
	if env.ctrl.Progress().Status != StatusActive {
		t.Errorf("status after retry = %s, want active", env.ctrl.Progress().Status)
	}
}

func TestRestoreResumesTimerFromPersistedElapsed(t *testing.T) {
	env := newTestEnv(t)
	mustInit(t, env.ctrl, "sess-resume", api.KindPractice)

	env.clk.Advance(42 * time.Second)
	env.ctrl.Suspend(context.Background())

	// App relaunches some time later.
	env.clk.Advance(10 * time.Minute)
	restored := env.newController()
	mustInit(t, restored, "sess-resume", api.KindPractice)

	if env.mock.FetchCalls != 1 {
		t.Errorf("fetch calls = %d, restore must not refetch", env.mock.FetchCalls)
	}
	env.clk.Advance(5 * time.Second)
	_, st, ok := restored.CurrentQuestion()
	if !ok {
		t.Fatal("expected a current question")
	}
	if st.Elapsed != 47*time.Second {
		t.Errorf("elapsed = %s, want 47s (42s persisted + 5s live)", st.Elapsed)
	}
}

// stalledSessionRepo never returns from Load until the caller's
// context expires, standing in for a wedged database.
type stalledSessionRepo struct{}

func (stalledSessionRepo) Save(ctx context.Context, snap *store.SessionSnapshot) error {
	return nil
}

func (stalledSessionRepo) Load(ctx context.Context, sessionID string) (*store.SessionSnapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledSessionRepo) Clear(ctx context.Context, sessionID string) error {
	return nil
}

func (stalledSessionRepo) Latest(ctx context.Context) (*store.SessionSnapshot, error) {
	return nil, nil
}

func TestRestoreTimeoutFallsBackToFresh(t *testing.T) {
	env := newTestEnv(t)

	ctrl := NewController(
		env.mock,
		submit.New(env.mock, zerolog.Nop()),
		stalledSessionRepo{},
		env.store.EventRepo(),
		env.clk,
		Config{RestoreTimeout: 50 * time.Millisecond},
		zerolog.Nop(),
	)
	mustInit(t, ctrl, "sess-stuck", api.KindPractice)

	if env.mock.FetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 (fresh fetch after load timeout)", env.mock.FetchCalls)
	}
	p := ctrl.Progress()
	if p.Status != StatusActive {
		t.Fatalf("status = %s, want active", p.Status)
	}
	if p.CurrentIndex != 0 || p.Total != 3 {
		t.Errorf("progress = %d/%d, want 0/3", p.CurrentIndex, p.Total)
	}
}

func TestRestoreReattemptsInterruptedSubmission(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{}, &api.ErrNetwork{Err: errors.New("broken pipe")})
	mustInit(t, env.ctrl, "sess-crash", api.KindQuiz)

	env.clk.Advance(20 * time.Second)
	if _, err := env.ctrl.SubmitAnswer(context.Background(), "4"); err == nil {
		t.Fatal("expected the in-flight submit to fail")
	}
	// The snapshot now holds an unanswered question with a frozen timer,
	// exactly what a crash mid-submission leaves behind.

	env.mock.QueueFeedback(api.Feedback{Correct: true, CorrectAnswer: "4"}, nil)
	restored := env.newController()
	mustInit(t, restored, "sess-crash", api.KindQuiz)

	calls := env.mock.SubmitCalls
	if len(calls) != 2 {
		t.Fatalf("submit count = %d, want 2 (original + re-attempt)", len(calls))
	}
	if calls[0].IdempotencyToken != calls[1].IdempotencyToken {
		t.Error("re-attempt must reuse the original token")
	}
	if calls[1].Answer != "4" || calls[1].ElapsedSeconds != 20 {
		t.Errorf("re-attempt = (%q, %ds), want (\"4\", 20s)", calls[1].Answer, calls[1].ElapsedSeconds)
	}

	_, st, _ := restored.CurrentQuestion()
	if !st.Answered {
		t.Error("question should be answered after the re-attempt lands")
	}
}

func TestSnapshotRoundTripPreservesProgress(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{Correct: true, CorrectAnswer: "4", Explanation: "arithmetic"}, nil)
	mustInit(t, env.ctrl, "sess-rt", api.KindQuiz)
	ctx := context.Background()

	if _, err := env.ctrl.SubmitAnswer(ctx, "4"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.ctrl.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}

	restored := env.newController()
	mustInit(t, restored, "sess-rt", api.KindQuiz)

	p := restored.Progress()
	if p.CurrentIndex != 1 || p.Answered != 1 {
		t.Errorf("progress = index %d answered %d, want 1 and 1", p.CurrentIndex, p.Answered)
	}
	q, st, err := restored.Review(0)
	if err == nil {
		t.Fatal("quiz review of an earlier question must be rejected")
	}
	_ = q
	_ = st
}

func TestPracticeReviewIsReadOnlyAndAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.mock.QueueFeedback(api.Feedback{Correct: false, CorrectAnswer: "4"}, nil)
	mustInit(t, env.ctrl, "", api.KindPractice)

	if _, err := env.ctrl.SubmitAnswer(context.Background(), "3"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Practice advances automatically, so question 0 is now behind us.
	q, st, err := env.ctrl.Review(0)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if q.ID != "q1" || !st.Answered || st.Feedback == nil {
		t.Errorf("review returned q=%s answered=%v", q.ID, st.Answered)
	}
	if _, _, err := env.ctrl.Review(2); err == nil {
		t.Error("reviewing an unanswered future question must fail")
	}
}

func TestCompleteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	for range testQuestions() {
		env.mock.QueueFeedback(api.Feedback{Correct: true}, nil)
	}
	env.mock.QueueSummary(api.ResultSummary{Score: 3, Total: 3, Accuracy: 1, Status: api.StatusFinal}, nil)
	mustInit(t, env.ctrl, "sess-done", api.KindPractice)
	ctx := context.Background()

	answers := []string{"4", "7", "a"}
	for _, a := range answers {
		if _, err := env.ctrl.SubmitAnswer(ctx, a); err != nil {
			t.Fatalf("submit %q: %v", a, err)
		}
	}
	if env.ctrl.Progress().Status != StatusCompleting {
		t.Fatalf("status = %s, want completing after the last answer", env.ctrl.Progress().Status)
	}

	sum, err := env.ctrl.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sum.Score != 3 {
		t.Errorf("score = %d, want 3", sum.Score)
	}
	if env.ctrl.Progress().Status != StatusCompleted {
		t.Errorf("status = %s, want completed", env.ctrl.Progress().Status)
	}

	snap, err := env.store.SessionRepo().Load(ctx, "sess-done")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Error("snapshot must be cleared after completion")
	}
}

func TestCompleteProcessingStaysCompleting(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Questions = testQuestions()[:1]
	env.mock.QueueFeedback(api.Feedback{Correct: true}, nil)
	env.mock.QueueSummary(api.ResultSummary{Status: api.StatusProcessing}, nil)
	env.mock.QueueSummary(api.ResultSummary{Score: 1, Total: 1, Status: api.StatusFinal}, nil)
	mustInit(t, env.ctrl, "", api.KindPractice)
	ctx := context.Background()

	if _, err := env.ctrl.SubmitAnswer(ctx, "4"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	sum, err := env.ctrl.Complete(ctx)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if sum.Final() {
		t.Fatal("first summary should still be processing")
	}
	if env.ctrl.Progress().Status != StatusCompleting {
		t.Fatalf("status = %s, want completing while grading runs", env.ctrl.Progress().Status)
	}

	sum, err = env.ctrl.Complete(ctx)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !sum.Final() || env.ctrl.Progress().Status != StatusCompleted {
		t.Errorf("status = %s final = %v, want completed and final", env.ctrl.Progress().Status, sum.Final())
	}
}

func TestAdvanceRequiresAnsweredQuestion(t *testing.T) {
	env := newTestEnv(t)
	mustInit(t, env.ctrl, "", api.KindQuiz)

	err := env.ctrl.Advance(context.Background())
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want InvalidStateError", err)
	}
}

// blockingClient parks SubmitAnswer until released so a test can observe
// the controller while an operation is outstanding.
type blockingClient struct {
	*api.Mock
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClient) SubmitAnswer(ctx context.Context, req api.SubmitRequest) (*api.Feedback, error) {
	close(b.entered)
	<-b.release
	return b.Mock.SubmitAnswer(ctx, req)
}

func TestConcurrentOperationsRejectedWhileSubmitting(t *testing.T) {
	env := newTestEnv(t)
	blocking := &blockingClient{
		Mock:    env.mock,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	blocking.QueueFeedback(api.Feedback{Correct: true}, nil)

	ctrl := NewController(
		blocking,
		submit.New(blocking, zerolog.Nop()),
		env.store.SessionRepo(),
		env.store.EventRepo(),
		env.clk,
		DefaultConfig(),
		zerolog.Nop(),
	)
	mustInit(t, ctrl, "", api.KindQuiz)

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.SubmitAnswer(context.Background(), "4")
		done <- err
	}()
	<-blocking.entered

	if err := ctrl.Advance(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("advance during submit = %v, want ErrBusy", err)
	}
	if _, err := ctrl.Complete(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("complete during submit = %v, want ErrBusy", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestCorruptSnapshotIsDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := &store.SessionSnapshot{
		Version:      store.SnapshotVersion,
		SessionID:    "sess-bad",
		Kind:         "practice",
		Status:       "active",
		CurrentIndex: 9, // out of range
		Questions:    []store.QuestionData{{ID: "q1"}},
		States:       []store.QuestionStateData{{}},
	}
	if err := env.store.SessionRepo().Save(ctx, bad); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := env.ctrl.Initialize(ctx, "sess-bad", api.KindPractice)
	var dataErr *api.ErrDataInconsistency
	if !errors.As(err, &dataErr) {
		t.Fatalf("err = %v, want ErrDataInconsistency", err)
	}

	snap, loadErr := env.store.SessionRepo().Load(ctx, "sess-bad")
	if loadErr != nil {
		t.Fatalf("load: %v", loadErr)
	}
	if snap != nil {
		t.Error("corrupt snapshot must be cleared, not kept")
	}
}
