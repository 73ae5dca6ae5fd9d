package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/clock"
	"github.com/tanay/prept/internal/store"
	"github.com/tanay/prept/internal/submit"
	"github.com/tanay/prept/internal/timer"
)

// ErrBusy is returned when an operation arrives while a prior
// asynchronous operation is still outstanding. Rapid repeated taps fail
// fast instead of fanning out into parallel mutations.
var ErrBusy = errors.New("another operation is in progress")

// InvalidStateError reports an operation called outside its valid state.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid while %s", e.Op, e.Status)
}

// Config holds controller tunables.
type Config struct {
	// RestoreTimeout bounds snapshot restoration. On expiry the
	// controller starts a fresh session instead of blocking.
	RestoreTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{RestoreTimeout: 3 * time.Second}
}

// Controller owns a session and serializes every mutation to it. It is
// the single source of session truth: views read from it, nothing else
// writes to its persistence key.
type Controller struct {
	cfg      Config
	clk      clock.Clock
	timer    *timer.Timer
	pipeline *submit.Pipeline
	client   api.Client
	sessions store.SessionRepo
	events   store.EventRepo
	log      zerolog.Logger

	mu         sync.Mutex
	busy       bool
	sess       *Session
	initKind   api.SessionKind
	lastErr    error
	failedFrom Status
	summary    *api.ResultSummary
}

// NewController wires a controller from its collaborators.
func NewController(client api.Client, pipeline *submit.Pipeline, sessions store.SessionRepo, events store.EventRepo, clk clock.Clock, cfg Config, log zerolog.Logger) *Controller {
	if cfg.RestoreTimeout <= 0 {
		cfg.RestoreTimeout = DefaultConfig().RestoreTimeout
	}
	return &Controller{
		cfg:      cfg,
		clk:      clk,
		timer:    timer.New(clk),
		pipeline: pipeline,
		client:   client,
		sessions: sessions,
		events:   events,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Timer exposes the question timer for tick rendering.
func (c *Controller) Timer() *timer.Timer { return c.timer }

// Initialize restores the session with the given id, or starts a fresh
// one when no snapshot exists (or restoration exceeds its bound). An
// empty sessionID always starts fresh with a generated id.
func (c *Controller) Initialize(ctx context.Context, sessionID string, kind api.SessionKind) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.sess != nil {
		st := c.sess.Status
		c.mu.Unlock()
		return &InvalidStateError{Op: "initialize", Status: st}
	}
	c.busy = true
	c.initKind = kind
	c.sess = &Session{ID: sessionID, Kind: kind, Status: StatusRestoring}
	c.mu.Unlock()

	var snap *store.SessionSnapshot
	if sessionID != "" {
		loadCtx, cancel := context.WithTimeout(ctx, c.cfg.RestoreTimeout)
		s, err := c.sessions.Load(loadCtx, sessionID)
		cancel()
		if err != nil {
			// Timed out or unreadable: fall back to a fresh start
			// rather than blocking the student indefinitely.
			c.log.Warn().Str("session", sessionID).Err(err).
				Msg("snapshot restore failed, starting fresh")
		} else {
			snap = s
		}
	}

	if snap != nil {
		return c.restore(ctx, snap)
	}
	return c.startFresh(ctx, sessionID, kind)
}

func (c *Controller) startFresh(ctx context.Context, sessionID string, kind api.SessionKind) error {
	questions, err := c.client.FetchQuestions(ctx, kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		c.failLocked(StatusRestoring, err)
		return err
	}
	if len(questions) == 0 {
		err := &api.ErrDataInconsistency{Err: errors.New("session has zero questions")}
		c.failLocked(StatusRestoring, err)
		return err
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	states := make([]*QuestionState, len(questions))
	for i := range states {
		states[i] = &QuestionState{}
	}
	c.sess = &Session{
		ID:        sessionID,
		Kind:      kind,
		Questions: questions,
		States:    states,
		Status:    StatusActive,
	}
	states[0].StartedAt = c.clk.Now()
	c.timer.Start(questions[0].ID, 0)
	c.persistLocked(ctx)

	if err := c.events.AppendSession(ctx, store.SessionEventData{
		SessionID: sessionID,
		Action:    "start",
		Kind:      string(kind),
	}); err != nil {
		c.log.Warn().Err(err).Msg("append session event")
	}

	c.log.Info().Str("session", sessionID).Int("questions", len(questions)).
		Msg("session started")
	return nil
}

func (c *Controller) restore(ctx context.Context, snap *store.SessionSnapshot) error {
	c.mu.Lock()

	sess, err := sessionFromSnapshot(snap)
	if err != nil {
		c.busy = false
		// Corrupt state is discarded, not patched.
		if clearErr := c.sessions.Clear(ctx, snap.SessionID); clearErr != nil {
			c.log.Warn().Err(clearErr).Msg("clear corrupt snapshot")
		}
		c.failLocked(StatusRestoring, err)
		c.mu.Unlock()
		return err
	}
	c.sess = sess

	if sess.Status == StatusCompleting {
		// Crash happened after the last answer; only completion is left.
		c.busy = false
		c.mu.Unlock()
		c.log.Info().Str("session", sess.ID).Msg("restored at completion step")
		return nil
	}

	q, cs := sess.Current()
	stale := !cs.Answered && cs.timerStopped
	if !cs.Answered && !stale {
		// Resume the clock from the persisted reading, not from zero.
		c.timer.Start(q.ID, cs.Elapsed)
	}
	sess.Status = StatusActive

	if !stale {
		c.busy = false
		c.mu.Unlock()
		c.log.Info().Str("session", sess.ID).Int("index", sess.CurrentIndex).
			Msg("session restored")
		return nil
	}

	// The snapshot froze the timer on an unanswered question: a
	// submission was in flight when the process died and its outcome is
	// unknown. Re-attempt with the same idempotency token; the server
	// deduplicates if the original actually landed.
	c.log.Info().Str("session", sess.ID).Str("question", q.ID).
		Msg("re-attempting interrupted submission")
	answer := cs.SelectedAnswer
	sess.Status = StatusSubmitting
	c.mu.Unlock()

	fb, err := c.pipeline.Submit(ctx, submit.Request{
		SessionID:  sess.ID,
		QuestionID: q.ID,
		Answer:     answer,
		Elapsed:    cs.Elapsed,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		var valErr *api.ErrValidation
		if errors.As(err, &valErr) {
			// The lost submission was never valid; re-open the question.
			cs.timerStopped = false
			c.timer.Start(q.ID, cs.Elapsed)
			sess.Status = StatusActive
			c.persistLocked(ctx)
			return nil
		}
		c.failLocked(StatusSubmitting, err)
		return err
	}

	c.recordAnswerLocked(ctx, q, cs, fb)
	return nil
}

// SelectAnswer records a picked-but-unconfirmed answer. Valid only while
// Active; a no-op once the current question is answered.
func (c *Controller) SelectAnswer(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status != StatusActive {
		return &InvalidStateError{Op: "select", Status: c.statusLocked()}
	}
	_, cs := c.sess.Current()
	if cs.Answered {
		return nil
	}
	cs.SelectedAnswer = raw
	return nil
}

// SubmitAnswer validates and submits the answer for the current
// question. Calling it again after the question is answered is a no-op
// returning the cached feedback. A local validation failure issues no
// network call and leaves the session Active on the same question.
func (c *Controller) SubmitAnswer(ctx context.Context, raw string) (*api.Feedback, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.sess == nil || c.sess.Status != StatusActive {
		st := c.statusLocked()
		c.mu.Unlock()
		return nil, &InvalidStateError{Op: "submit", Status: st}
	}

	sess := c.sess
	q, cs := sess.Current()
	if cs.Answered {
		fb := cs.Feedback
		c.mu.Unlock()
		return fb, nil
	}

	if err := validateAnswer(q, raw); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	// Freeze the clock before the handoff; the frozen reading is what
	// gets submitted and persisted. A retry of an already-frozen
	// question keeps its original reading.
	cs.SelectedAnswer = raw
	if !cs.timerStopped {
		cs.Elapsed = c.timer.Stop()
		cs.timerStopped = true
	}
	sess.Status = StatusSubmitting
	c.persistLocked(ctx)
	c.busy = true
	c.mu.Unlock()

	fb, err := c.pipeline.Submit(ctx, submit.Request{
		SessionID:  sess.ID,
		QuestionID: q.ID,
		Answer:     raw,
		Elapsed:    cs.Elapsed,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		var valErr *api.ErrValidation
		if errors.As(err, &valErr) {
			// Server-side rejection: re-open the question for a new answer.
			cs.timerStopped = false
			c.timer.Start(q.ID, cs.Elapsed)
			sess.Status = StatusActive
			c.persistLocked(ctx)
			return nil, err
		}
		c.failLocked(StatusSubmitting, err)
		return nil, err
	}

	c.recordAnswerLocked(ctx, q, cs, fb)
	return fb, nil
}

// recordAnswerLocked applies successful feedback: the question becomes
// immutable, the snapshot is persisted, and sessions without a feedback
// step advance immediately.
func (c *Controller) recordAnswerLocked(ctx context.Context, q api.Question, cs *QuestionState, fb *api.Feedback) {
	cs.Answered = true
	cs.Feedback = fb
	c.sess.Status = StatusActive
	c.persistLocked(ctx)

	if err := c.events.AppendAnswer(ctx, store.AnswerEventData{
		SessionID:      c.sess.ID,
		QuestionID:     q.ID,
		Subject:        q.Subject,
		Chapter:        q.Chapter,
		Correct:        fb.Correct,
		ElapsedSeconds: int(cs.Elapsed.Seconds()),
	}); err != nil {
		c.log.Warn().Err(err).Msg("append answer event")
	}

	if !c.sess.FeedbackStep() {
		c.advanceLocked(ctx)
	}
}

// Advance moves to the next question after the current one is answered,
// or into Completing when none remain.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.sess == nil || c.sess.Status != StatusActive {
		return &InvalidStateError{Op: "advance", Status: c.statusLocked()}
	}
	if _, cs := c.sess.Current(); !cs.Answered {
		return &InvalidStateError{Op: "advance (unanswered question)", Status: StatusActive}
	}
	c.advanceLocked(ctx)
	return nil
}

func (c *Controller) advanceLocked(ctx context.Context) {
	sess := c.sess
	if sess.CurrentIndex+1 >= len(sess.Questions) {
		sess.Status = StatusCompleting
		c.persistLocked(ctx)
		return
	}

	sess.CurrentIndex++
	q, cs := sess.Current()
	if cs.StartedAt.IsZero() {
		cs.StartedAt = c.clk.Now()
	}
	if !cs.Answered {
		c.timer.Start(q.ID, cs.Elapsed)
	}
	c.persistLocked(ctx)
}

// Review returns a read-only copy of an answered question's state.
// Forward-only sessions reject review of anything but the current
// question; free-navigation sessions allow revisiting any answered one.
func (c *Controller) Review(index int) (api.Question, QuestionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero api.Question
	if c.sess == nil {
		return zero, QuestionState{}, &InvalidStateError{Op: "review", Status: StatusUninitialized}
	}
	if index < 0 || index >= len(c.sess.Questions) {
		return zero, QuestionState{}, fmt.Errorf("review: index %d out of range", index)
	}
	if c.sess.ForwardOnly() && index != c.sess.CurrentIndex {
		return zero, QuestionState{}, errors.New("review: session is forward-only")
	}
	if !c.sess.States[index].Answered && index != c.sess.CurrentIndex {
		return zero, QuestionState{}, errors.New("review: question not answered yet")
	}
	return c.sess.Questions[index], *c.sess.States[index], nil
}

// Complete finalizes the session. The server computes the score; on a
// "processing" answer the session stays Completing and Complete can be
// called again once grading settles.
func (c *Controller) Complete(ctx context.Context) (*api.ResultSummary, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.sess == nil || c.sess.Status != StatusCompleting {
		st := c.statusLocked()
		c.mu.Unlock()
		return nil, &InvalidStateError{Op: "complete", Status: st}
	}
	sess := c.sess
	c.busy = true
	c.mu.Unlock()

	sum, err := c.client.CompleteSession(ctx, sess.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		c.failLocked(StatusCompleting, err)
		return nil, err
	}

	c.summary = sum
	if !sum.Final() {
		// Scoring still running server-side; remain Completing so the
		// caller can retry. Recorded as a product-pending heuristic.
		c.log.Info().Str("session", sess.ID).Msg("completion still processing")
		return sum, nil
	}

	sess.Status = StatusCompleted
	if err := c.sessions.Clear(ctx, sess.ID); err != nil {
		c.log.Warn().Err(err).Msg("clear snapshot")
	}
	if err := c.events.AppendSession(ctx, store.SessionEventData{
		SessionID:    sess.ID,
		Action:       "complete",
		Kind:         string(sess.Kind),
		Score:        sum.Score,
		Total:        sum.Total,
		DurationSecs: sum.TotalTimeSeconds,
	}); err != nil {
		c.log.Warn().Err(err).Msg("append session event")
	}

	c.log.Info().Str("session", sess.ID).Int("score", sum.Score).
		Int("total", sum.Total).Msg("session completed")
	return sum, nil
}

// Retry re-invokes the operation that moved the session into Failed,
// reusing the same inputs (and, for submissions, the same idempotency
// token).
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.sess == nil || c.sess.Status != StatusFailed {
		st := c.statusLocked()
		c.mu.Unlock()
		return &InvalidStateError{Op: "retry", Status: st}
	}

	from := c.failedFrom
	c.lastErr = nil

	switch from {
	case StatusSubmitting:
		c.sess.Status = StatusActive
		_, cs := c.sess.Current()
		answer := cs.SelectedAnswer
		c.mu.Unlock()
		_, err := c.SubmitAnswer(ctx, answer)
		return err
	case StatusCompleting:
		c.sess.Status = StatusCompleting
		c.mu.Unlock()
		_, err := c.Complete(ctx)
		return err
	case StatusRestoring:
		id, kind := c.sess.ID, c.initKind
		c.sess = nil
		c.mu.Unlock()
		return c.Initialize(ctx, id, kind)
	default:
		c.mu.Unlock()
		return &InvalidStateError{Op: "retry", Status: from}
	}
}

// Suspend persists the live snapshot without stopping the session, so
// quitting the app mid-question loses nothing.
func (c *Controller) Suspend(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status == StatusCompleted {
		return
	}
	c.persistLocked(ctx)
}

// Progress returns a read-only view for rendering.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return Progress{Status: StatusUninitialized}
	}
	p := Progress{
		SessionID:    c.sess.ID,
		Status:       c.sess.Status,
		CurrentIndex: c.sess.CurrentIndex,
		Total:        len(c.sess.Questions),
		Answered:     c.sess.AnsweredCount(),
	}
	if len(c.sess.States) > 0 {
		p.Elapsed = c.currentElapsedLocked()
	}
	return p
}

// CurrentQuestion returns the current question and a copy of its state.
func (c *Controller) CurrentQuestion() (api.Question, QuestionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || len(c.sess.Questions) == 0 {
		return api.Question{}, QuestionState{}, false
	}
	q, cs := c.sess.Current()
	state := *cs
	state.Elapsed = c.currentElapsedLocked()
	return q, state, true
}

// currentElapsedLocked reads the live timer for the running question and
// the frozen state value otherwise.
func (c *Controller) currentElapsedLocked() time.Duration {
	_, cs := c.sess.Current()
	if !cs.Answered && !cs.timerStopped && c.timer.Running() {
		return c.timer.Elapsed()
	}
	return cs.Elapsed
}

// LastError returns the error attached to the Failed state, nil
// otherwise.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Summary returns the completion summary once Complete has succeeded.
func (c *Controller) Summary() *api.ResultSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

func (c *Controller) statusLocked() Status {
	if c.sess == nil {
		return StatusUninitialized
	}
	return c.sess.Status
}

func (c *Controller) failLocked(from Status, err error) {
	c.sess.Status = StatusFailed
	c.failedFrom = from
	c.lastErr = err
	c.log.Error().Stringer("from", from).Err(err).Msg("session failed")
}

// persistLocked writes the snapshot. Writes happen under the controller
// lock, so snapshot N+1 can never overtake snapshot N.
func (c *Controller) persistLocked(ctx context.Context) {
	if c.sess == nil || len(c.sess.Questions) == 0 {
		return
	}
	snap := snapshotFromSession(c.sess, c.currentElapsedLocked(), c.clk.Now())
	if err := c.sessions.Save(ctx, snap); err != nil {
		c.log.Warn().Str("session", c.sess.ID).Err(err).Msg("persist snapshot")
	}
}

// validateAnswer checks an answer against the question's kind locally,
// before any network traffic.
func validateAnswer(q api.Question, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &api.ErrValidation{Message: "answer is empty"}
	}
	switch q.Kind {
	case api.AnswerNumeric:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return &api.ErrValidation{Message: fmt.Sprintf("%q is not a number", raw)}
		}
	case api.AnswerChoice:
		if len(q.Options) > 0 {
			for _, opt := range q.Options {
				if raw == opt {
					return nil
				}
			}
			return &api.ErrValidation{Message: fmt.Sprintf("%q is not one of the options", raw)}
		}
	}
	return nil
}
