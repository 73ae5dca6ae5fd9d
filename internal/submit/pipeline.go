// Package submit performs answer submissions that are exactly-once from
// the session's point of view. Each attempt carries an idempotency token
// stable for the (session, question) pair, so a retry after a lost
// response cannot double-score. Failures surface to the caller; retry
// is a user-visible action, never a hidden loop that masks an outage.
package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tanay/prept/internal/api"
)

// ErrInFlight is returned when a submission is attempted while another
// one is still outstanding.
var ErrInFlight = errors.New("a submission is already in flight")

// tokenNamespace scopes idempotency tokens to this application.
var tokenNamespace = uuid.MustParse("7c9e2f0a-5b1d-4c3a-9e1f-2d8b6a470c55")

// Request is one answer to deliver.
type Request struct {
	SessionID  string
	QuestionID string
	Answer     string
	Elapsed    time.Duration
}

// Token derives the idempotency token for a (session, question) pair.
// It is a name-based UUID: identical inputs always produce the same
// token, across attempts and across process restarts.
func Token(sessionID, questionID string) string {
	return uuid.NewSHA1(tokenNamespace, []byte(sessionID+"/"+questionID)).String()
}

// Pipeline delivers submissions through the assessment client.
type Pipeline struct {
	client api.Client
	log    zerolog.Logger

	mu       sync.Mutex
	inFlight bool
}

// New creates a Pipeline over the given client.
func New(client api.Client, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		client: client,
		log:    log.With().Str("component", "submit").Logger(),
	}
}

// Submit sends one attempt. At most one submission may be outstanding;
// a second call while one is in flight fails fast with ErrInFlight so a
// double-tap cannot fan out into two network calls.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*api.Feedback, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrInFlight
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	token := Token(req.SessionID, req.QuestionID)
	fb, err := p.client.SubmitAnswer(ctx, api.SubmitRequest{
		SessionID:        req.SessionID,
		QuestionID:       req.QuestionID,
		Answer:           req.Answer,
		ElapsedSeconds:   int(req.Elapsed.Seconds()),
		IdempotencyToken: token,
	})
	if err != nil {
		p.log.Warn().Str("question", req.QuestionID).Str("token", token).
			Err(err).Msg("submission failed")
		return nil, err
	}

	p.log.Debug().Str("question", req.QuestionID).Bool("correct", fb.Correct).
		Msg("submission accepted")
	return fb, nil
}

// InFlight reports whether a submission is outstanding.
func (p *Pipeline) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}
