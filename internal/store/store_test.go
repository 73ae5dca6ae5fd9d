package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not asserted here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func testSnapshot(sessionID string) *SessionSnapshot {
	return &SessionSnapshot{
		SessionID:    sessionID,
		Kind:         "quiz",
		Status:       "active",
		CurrentIndex: 1,
		Questions: []QuestionData{
			{ID: "q1", Subject: "physics", Prompt: "v = ?", Kind: "numeric"},
			{ID: "q2", Prompt: "Pick one", Kind: "multiple-choice", Options: []string{"a", "b"}},
		},
		States: []QuestionStateData{
			{ElapsedSeconds: 12, SelectedAnswer: "3", Answered: true,
				Feedback: &FeedbackData{Correct: true, CorrectAnswer: "3"}},
			{ElapsedSeconds: 42},
		},
		SavedAt: time.Now().UTC(),
	}
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exists")
	}

	if err := repo.Save(ctx, testSnapshot("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err = repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", snap.CurrentIndex)
	}
	if len(snap.Questions) != 2 || len(snap.States) != 2 {
		t.Fatalf("questions/states = %d/%d, want 2/2", len(snap.Questions), len(snap.States))
	}
	if snap.States[1].ElapsedSeconds != 42 {
		t.Errorf("States[1].ElapsedSeconds = %d, want 42", snap.States[1].ElapsedSeconds)
	}
	if !snap.States[0].Answered || snap.States[0].Feedback == nil {
		t.Error("expected answered state with feedback to survive the round trip")
	}
}

func TestSessionSnapshotUpsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	updated := testSnapshot("s1")
	updated.CurrentIndex = 2
	if err := repo.Save(ctx, updated); err != nil {
		t.Fatalf("save (update): %v", err)
	}

	snap, err := repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.CurrentIndex != 2 {
		t.Errorf("CurrentIndex = %d, want 2 after upsert", snap.CurrentIndex)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM session_snapshots`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1 (upsert, not insert)", count)
	}
}

func TestSessionSnapshotClear(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	snap, err := repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Error("expected snapshot gone after clear")
	}

	// Clearing again is not an error.
	if err := repo.Clear(ctx, "s1"); err != nil {
		t.Errorf("clear (missing): %v", err)
	}
}

func TestSnapshotsAreIsolatedBySession(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot("s1")); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if err := repo.Save(ctx, testSnapshot("s2")); err != nil {
		t.Fatalf("save s2: %v", err)
	}
	if err := repo.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear s1: %v", err)
	}

	snap, err := repo.Load(ctx, "s2")
	if err != nil {
		t.Fatalf("load s2: %v", err)
	}
	if snap == nil {
		t.Error("clearing s1 must not touch s2")
	}
}

func TestEventStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	answers := []AnswerEventData{
		{SessionID: "s1", QuestionID: "q1", Subject: "physics", Correct: true, ElapsedSeconds: 10},
		{SessionID: "s1", QuestionID: "q2", Subject: "physics", Correct: false, ElapsedSeconds: 30},
		{SessionID: "s1", QuestionID: "q3", Subject: "maths", Correct: true, ElapsedSeconds: 20},
	}
	for _, a := range answers {
		if err := repo.AppendAnswer(ctx, a); err != nil {
			t.Fatalf("append answer: %v", err)
		}
	}
	if err := repo.AppendSession(ctx, SessionEventData{SessionID: "s1", Action: "complete", Score: 2, Total: 3}); err != nil {
		t.Fatalf("append session: %v", err)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAnswers != 3 || stats.TotalCorrect != 2 {
		t.Errorf("totals = %d/%d, want 3/2", stats.TotalAnswers, stats.TotalCorrect)
	}
	if stats.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", stats.SessionsCompleted)
	}
	if got := stats.Accuracy(); got < 0.66 || got > 0.67 {
		t.Errorf("Accuracy = %f, want ~0.667", got)
	}
	if len(stats.Subjects) != 2 {
		t.Fatalf("subjects = %d, want 2", len(stats.Subjects))
	}
	if stats.Subjects[0].Subject != "maths" || stats.Subjects[1].Subject != "physics" {
		t.Errorf("subject order = %v, want maths then physics", stats.Subjects)
	}
	if stats.Subjects[1].AvgSeconds != 20 {
		t.Errorf("physics AvgSeconds = %f, want 20", stats.Subjects[1].AvgSeconds)
	}
}

func TestLatestReturnsMostRecentSnapshot(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	older := testSnapshot("old-session")
	older.SavedAt = time.Now().UTC().Add(-time.Hour)
	if err := repo.Save(ctx, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	newer := testSnapshot("new-session")
	newer.SavedAt = time.Now().UTC().Add(time.Hour)
	if err := repo.Save(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	got, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.SessionID != "new-session" {
		t.Fatalf("latest = %+v, want new-session", got)
	}
}
