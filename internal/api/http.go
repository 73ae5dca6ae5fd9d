package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient is the production Client over the service's REST API.
type HTTPClient struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

var _ Client = (*HTTPClient)(nil)

// New creates an HTTPClient. The config must already be validated.
func New(cfg Config, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		// Per-attempt bounding is done with a context deadline in do();
		// the transport timeout is a backstop.
		client: &http.Client{Timeout: 2 * cfg.Timeout},
		log:    log.With().Str("component", "api").Logger(),
	}
}

func (c *HTTPClient) FetchQuestions(ctx context.Context, kind SessionKind) ([]Question, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/sessions/questions?kind="+url.QueryEscape(string(kind)), nil, nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Questions []Question `json:"questions"`
	}
	if err := decodeValidated("question-list", questionListSchema, raw, &body); err != nil {
		return nil, err
	}
	return body.Questions, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, req SubmitRequest) (*Feedback, error) {
	path := fmt.Sprintf("/v1/sessions/%s/answers", url.PathEscape(req.SessionID))
	headers := map[string]string{"Idempotency-Key": req.IdempotencyToken}

	raw, err := c.do(ctx, http.MethodPost, path, req, headers)
	if err != nil {
		return nil, err
	}

	var fb Feedback
	if err := decodeValidated("feedback", feedbackSchema, raw, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

func (c *HTTPClient) CompleteSession(ctx context.Context, sessionID string) (*ResultSummary, error) {
	path := fmt.Sprintf("/v1/sessions/%s/complete", url.PathEscape(sessionID))
	raw, err := c.do(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var sum ResultSummary
	if err := decodeValidated("result-summary", resultSummarySchema, raw, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *HTTPClient) GetUnlockState(ctx context.Context, studentID string) (*UnlockState, error) {
	path := fmt.Sprintf("/v1/students/%s/unlocks", url.PathEscape(studentID))
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var state UnlockState
	if err := decodeValidated("unlock-state", unlockStateSchema, raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *HTTPClient) UnlockChapterEarly(ctx context.Context, attempt UnlockAttempt) (*UnlockOutcome, error) {
	path := fmt.Sprintf("/v1/students/%s/unlocks/%s",
		url.PathEscape(attempt.StudentID), url.PathEscape(attempt.ChapterID))
	raw, err := c.do(ctx, http.MethodPost, path, attempt, nil)
	if err != nil {
		return nil, err
	}

	var outcome UnlockOutcome
	if err := decodeValidated("unlock-outcome", unlockOutcomeSchema, raw, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// do performs one bounded request attempt and maps the outcome onto the
// error taxonomy. It never retries; retry is the caller's decision.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		mapped := mapTransportError(err)
		c.log.Warn().Str("method", method).Str("path", path).
			Dur("latency", latency).Err(mapped).Msg("request failed")
		return nil, mapped
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrNetwork{Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.Debug().Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("latency", latency).Msg("request")

	if err := mapStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// mapTransportError classifies a client.Do failure.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ErrNetwork{Timeout: true, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &ErrNetwork{Timeout: true, Err: err}
	}
	return &ErrNetwork{Err: err}
}

// mapStatus turns a non-2xx response into a typed error.
func mapStatus(status int, raw []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := serverMessage(raw)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrAuthRequired{Err: fmt.Errorf("HTTP %d: %s", status, msg)}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &ErrValidation{Message: msg}
	case status >= 500:
		return &ErrServer{Status: status, Err: errors.New(msg)}
	default:
		return &ErrServer{Status: status, Err: fmt.Errorf("unexpected status: %s", msg)}
	}
}

// serverMessage extracts the error message from an {"error": "..."} body,
// falling back to the raw text.
func serverMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "no response body"
	}
	return s
}
