package summary

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/router"
)

func testSummary() *api.ResultSummary {
	return &api.ResultSummary{
		Score:            7,
		Total:            10,
		Accuracy:         0.7,
		TotalTimeSeconds: 312,
		Streak:           4,
		Status:           api.StatusFinal,
	}
}

func TestViewShowsScoreAndTime(t *testing.T) {
	s := New(testSummary(), api.KindPractice)
	out := s.View(100, 30)

	for _, want := range []string{"7 / 10", "5:12", "Study streak: 4 days", "Practice complete!"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuizTitle(t *testing.T) {
	s := New(testSummary(), api.KindQuiz)
	if !strings.Contains(s.View(100, 30), "Quiz complete!") {
		t.Error("quiz summary should use the quiz title")
	}
}

func TestZeroStreakHidden(t *testing.T) {
	sum := testSummary()
	sum.Streak = 0
	s := New(sum, api.KindPractice)
	if strings.Contains(s.View(100, 30), "Study streak") {
		t.Error("zero streak should not be shown")
	}
}

func TestEnterPopsToHome(t *testing.T) {
	s := New(testSummary(), api.KindPractice)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("enter should pop back home")
	}
}
