package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is bumped when the snapshot layout changes; older
// snapshots are discarded rather than migrated.
const SnapshotVersion = 1

// SessionSnapshot is the serializable projection of a running session.
// Question content is carried in full so a restart can rehydrate without
// a network round trip.
type SessionSnapshot struct {
	Version      int                 `json:"version"`
	SessionID    string              `json:"session_id"`
	Kind         string              `json:"kind"`
	Status       string              `json:"status"`
	CurrentIndex int                 `json:"current_index"`
	Questions    []QuestionData      `json:"questions"`
	States       []QuestionStateData `json:"states"`
	SavedAt      time.Time           `json:"saved_at"`
}

// QuestionData mirrors an immutable fetched question.
type QuestionData struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject"`
	Chapter string   `json:"chapter"`
	Prompt  string   `json:"prompt"`
	Kind    string   `json:"kind"`
	Options []string `json:"options,omitempty"`
}

// QuestionStateData mirrors one question's mutable state.
type QuestionStateData struct {
	ElapsedSeconds int           `json:"elapsed_seconds"`
	SelectedAnswer string        `json:"selected_answer,omitempty"`
	Answered       bool          `json:"answered"`
	Feedback       *FeedbackData `json:"feedback,omitempty"`

	// TimerStopped marks a question whose timer was frozen for
	// submission. An unanswered question with a stopped timer after a
	// restart means the submission outcome was lost mid-flight.
	TimerStopped bool `json:"timer_stopped,omitempty"`
}

// FeedbackData mirrors the server's grading of an answered question.
type FeedbackData struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// SessionRepo persists session snapshots. Only the session controller
// writes to a given session's row, so there is a single writer per key
// by construction.
type SessionRepo interface {
	// Save upserts the snapshot for its session id. A save either
	// replaces the row atomically or leaves the prior snapshot intact.
	Save(ctx context.Context, snap *SessionSnapshot) error

	// Load returns the snapshot for sessionID, or nil if none exists.
	Load(ctx context.Context, sessionID string) (*SessionSnapshot, error)

	// Clear removes the snapshot for sessionID. Clearing a missing row
	// is not an error.
	Clear(ctx context.Context, sessionID string) error

	// Latest returns the most recently saved snapshot, or nil if none
	// exists. Used to offer resuming an interrupted session.
	Latest(ctx context.Context) (*SessionSnapshot, error)
}

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, snap *SessionSnapshot) error {
	if snap.SessionID == "" {
		return fmt.Errorf("save snapshot: empty session id")
	}
	snap.Version = SnapshotVersion

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (session_id, updated_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			data = excluded.data`,
		snap.SessionID, snap.SavedAt.UTC(), string(data))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *sessionRepo) Load(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM session_snapshots WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		// Layout changed under us; treat as no snapshot.
		return nil, nil
	}
	return &snap, nil
}

func (r *sessionRepo) Latest(ctx context.Context) (*SessionSnapshot, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM session_snapshots ORDER BY updated_at DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, nil
	}
	return &snap, nil
}

func (r *sessionRepo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM session_snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
