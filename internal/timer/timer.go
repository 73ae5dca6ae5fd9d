// Package timer tracks active time on the current question. Elapsed time
// is always recomputed from the start instant rather than accumulated
// from ticks, so a suspended process reads the correct value immediately
// on resume instead of drifting.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/tanay/prept/internal/clock"
)

// TickInterval is how often a subscribed consumer is notified.
const TickInterval = time.Second

// Tick is one elapsed-time observation for a question. Consumers must
// tolerate delivery gaps: the next tick self-corrects because Elapsed is
// derived from the start instant.
type Tick struct {
	QuestionID string
	Elapsed    time.Duration
}

// Timer measures elapsed active time for one question at a time.
type Timer struct {
	clk clock.Clock

	mu         sync.Mutex
	questionID string
	startedAt  time.Time
	running    bool
	frozen     time.Duration
}

// New creates a Timer on the given clock.
func New(clk clock.Clock) *Timer {
	return &Timer{clk: clk}
}

// Start begins timing questionID, resuming from an already-elapsed
// duration. Restarting for a new question discards the previous reading.
func (t *Timer) Start(questionID string, resumeFrom time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.questionID = questionID
	t.startedAt = t.clk.Now().Add(-resumeFrom)
	t.running = true
	t.frozen = 0
}

// Stop freezes the timer and returns the final elapsed reading. The
// final value is read under the same lock that stops ticking, so a tick
// racing the stop can never be observed after it.
func (t *Timer) Stop() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.frozen = t.clk.Now().Sub(t.startedAt)
		t.running = false
	}
	return t.frozen
}

// Elapsed returns the current reading: live while running, the frozen
// final value after Stop.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return t.frozen
	}
	return t.clk.Now().Sub(t.startedAt)
}

// Running reports whether the timer is live.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// QuestionID returns the question currently (or last) timed.
func (t *Timer) QuestionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.questionID
}

// Subscribe emits at most one Tick per second until ctx is cancelled or
// the timer is stopped. Ticks are dropped, not queued, when the consumer
// lags.
func (t *Timer) Subscribe(ctx context.Context) <-chan Tick {
	out := make(chan Tick, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.mu.Lock()
				running := t.running
				tick := Tick{QuestionID: t.questionID}
				if running {
					tick.Elapsed = t.clk.Now().Sub(t.startedAt)
				}
				t.mu.Unlock()
				if !running {
					return
				}
				select {
				case out <- tick:
				default:
				}
			}
		}
	}()
	return out
}
