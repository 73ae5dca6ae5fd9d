package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AnswerEventData records one graded answer.
type AnswerEventData struct {
	SessionID      string
	QuestionID     string
	Subject        string
	Chapter        string
	Correct        bool
	ElapsedSeconds int
}

// SessionEventData records a session lifecycle action ("start",
// "complete", "abandon").
type SessionEventData struct {
	SessionID    string
	Action       string
	Kind         string
	Score        int
	Total        int
	DurationSecs int
}

// SubjectStat aggregates answer history for one subject.
type SubjectStat struct {
	Subject    string
	Attempted  int
	Correct    int
	AvgSeconds float64
}

// Stats is the aggregate view served by `prept stats`.
type Stats struct {
	TotalAnswers      int
	TotalCorrect      int
	SessionsCompleted int
	Subjects          []SubjectStat
}

// Accuracy returns overall answer accuracy in [0, 1].
func (s Stats) Accuracy() float64 {
	if s.TotalAnswers == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalAnswers)
}

// EventRepo is the append-only local history.
type EventRepo interface {
	AppendAnswer(ctx context.Context, data AnswerEventData) error
	AppendSession(ctx context.Context, data SessionEventData) error
	Stats(ctx context.Context) (*Stats, error)
}

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO answer_events
			(session_id, question_id, subject, chapter, correct, elapsed_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		data.SessionID, data.QuestionID, data.Subject, data.Chapter,
		data.Correct, data.ElapsedSeconds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSession(ctx context.Context, data SessionEventData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_events
			(session_id, action, kind, score, total, duration_secs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		data.SessionID, data.Action, data.Kind, data.Score, data.Total,
		data.DurationSecs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}

func (r *eventRepo) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM answer_events`).
		Scan(&stats.TotalAnswers, &stats.TotalCorrect)
	if err != nil {
		return nil, fmt.Errorf("query answer totals: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM session_events WHERE action = 'complete'`).
		Scan(&stats.SessionsCompleted)
	if err != nil {
		return nil, fmt.Errorf("query session totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT subject, COUNT(*), COALESCE(SUM(correct), 0), COALESCE(AVG(elapsed_seconds), 0)
		FROM answer_events
		WHERE subject != ''
		GROUP BY subject
		ORDER BY subject`)
	if err != nil {
		return nil, fmt.Errorf("query subject stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SubjectStat
		if err := rows.Scan(&s.Subject, &s.Attempted, &s.Correct, &s.AvgSeconds); err != nil {
			return nil, fmt.Errorf("scan subject stat: %w", err)
		}
		stats.Subjects = append(stats.Subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject stats: %w", err)
	}

	return stats, nil
}
