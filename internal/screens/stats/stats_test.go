package stats

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/tanay/prept/internal/store"
)

type stubEventRepo struct {
	stats *store.Stats
	err   error
}

func (r *stubEventRepo) AppendAnswer(context.Context, store.AnswerEventData) error   { return nil }
func (r *stubEventRepo) AppendSession(context.Context, store.SessionEventData) error { return nil }
func (r *stubEventRepo) Stats(context.Context) (*store.Stats, error)                 { return r.stats, r.err }

func loaded(t *testing.T, repo *stubEventRepo) *Screen {
	t.Helper()
	s := New(repo)
	_, _ = s.Update(s.Init()())
	return s
}

func TestViewShowsAggregates(t *testing.T) {
	s := loaded(t, &stubEventRepo{stats: &store.Stats{
		TotalAnswers:      40,
		TotalCorrect:      30,
		SessionsCompleted: 4,
		Subjects: []store.SubjectStat{
			{Subject: "Algebra", Attempted: 25, Correct: 20, AvgSeconds: 12.5},
			{Subject: "Geometry", Attempted: 15, Correct: 10, AvgSeconds: 20.0},
		},
	}})

	view := s.View(100, 30)
	if !strings.Contains(view, "Sessions finished: 4") {
		t.Errorf("view missing session count:\n%s", view)
	}
	if !strings.Contains(view, "Questions answered: 40") {
		t.Errorf("view missing answer count:\n%s", view)
	}
	if !strings.Contains(view, "Algebra") || !strings.Contains(view, "Geometry") {
		t.Errorf("view missing subject lines:\n%s", view)
	}
}

func TestViewWithEmptyHistory(t *testing.T) {
	s := loaded(t, &stubEventRepo{stats: &store.Stats{}})

	view := s.View(100, 30)
	if !strings.Contains(view, "No practice history yet") {
		t.Errorf("view missing empty-state line:\n%s", view)
	}
}

func TestLoadFailureDismissesOnKey(t *testing.T) {
	s := loaded(t, &stubEventRepo{err: errors.New("disk gone")})

	if !strings.Contains(s.View(100, 30), "disk gone") {
		t.Error("expected the error in the view")
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if cmd == nil {
		t.Error("expected a pop command after a key press")
	}
}
