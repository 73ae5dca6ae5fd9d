package session

import (
	"fmt"
	"time"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/store"
)

// snapshotFromSession projects the live session into its persisted form.
// currentElapsed supplies the running timer's reading for the current
// question so a suspend mid-question saves the clock as seen on screen.
func snapshotFromSession(sess *Session, currentElapsed time.Duration, savedAt time.Time) *store.SessionSnapshot {
	questions := make([]store.QuestionData, len(sess.Questions))
	for i, q := range sess.Questions {
		questions[i] = store.QuestionData{
			ID:      q.ID,
			Subject: q.Subject,
			Chapter: q.Chapter,
			Prompt:  q.Prompt,
			Kind:    string(q.Kind),
			Options: q.Options,
		}
	}

	states := make([]store.QuestionStateData, len(sess.States))
	for i, st := range sess.States {
		data := store.QuestionStateData{
			ElapsedSeconds: int(st.Elapsed.Seconds()),
			SelectedAnswer: st.SelectedAnswer,
			Answered:       st.Answered,
			TimerStopped:   st.timerStopped,
		}
		if i == sess.CurrentIndex && !st.Answered && !st.timerStopped {
			data.ElapsedSeconds = int(currentElapsed.Seconds())
		}
		if st.Feedback != nil {
			data.Feedback = &store.FeedbackData{
				Correct:       st.Feedback.Correct,
				CorrectAnswer: st.Feedback.CorrectAnswer,
				Explanation:   st.Feedback.Explanation,
			}
		}
		states[i] = data
	}

	return &store.SessionSnapshot{
		Version:      store.SnapshotVersion,
		SessionID:    sess.ID,
		Kind:         string(sess.Kind),
		Status:       sess.Status.String(),
		CurrentIndex: sess.CurrentIndex,
		Questions:    questions,
		States:       states,
		SavedAt:      savedAt,
	}
}

// sessionFromSnapshot rebuilds a session from its persisted form,
// rejecting structurally inconsistent snapshots.
func sessionFromSnapshot(snap *store.SessionSnapshot) (*Session, error) {
	if len(snap.Questions) == 0 {
		return nil, &api.ErrDataInconsistency{Err: fmt.Errorf("snapshot %s has no questions", snap.SessionID)}
	}
	if len(snap.States) != len(snap.Questions) {
		return nil, &api.ErrDataInconsistency{
			Err: fmt.Errorf("snapshot %s has %d states for %d questions",
				snap.SessionID, len(snap.States), len(snap.Questions)),
		}
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.Questions) {
		return nil, &api.ErrDataInconsistency{
			Err: fmt.Errorf("snapshot %s index %d out of range", snap.SessionID, snap.CurrentIndex),
		}
	}
	status, ok := statusFromString(snap.Status)
	if !ok {
		return nil, &api.ErrDataInconsistency{
			Err: fmt.Errorf("snapshot %s has unknown status %q", snap.SessionID, snap.Status),
		}
	}

	questions := make([]api.Question, len(snap.Questions))
	for i, q := range snap.Questions {
		questions[i] = api.Question{
			ID:      q.ID,
			Subject: q.Subject,
			Chapter: q.Chapter,
			Prompt:  q.Prompt,
			Kind:    api.AnswerKind(q.Kind),
			Options: q.Options,
		}
	}

	states := make([]*QuestionState, len(snap.States))
	for i, st := range snap.States {
		qs := &QuestionState{
			Elapsed:        time.Duration(st.ElapsedSeconds) * time.Second,
			SelectedAnswer: st.SelectedAnswer,
			Answered:       st.Answered,
			timerStopped:   st.TimerStopped,
		}
		if st.Feedback != nil {
			qs.Feedback = &api.Feedback{
				Correct:       st.Feedback.Correct,
				CorrectAnswer: st.Feedback.CorrectAnswer,
				Explanation:   st.Feedback.Explanation,
			}
		}
		states[i] = qs
	}

	return &Session{
		ID:           snap.SessionID,
		Kind:         api.SessionKind(snap.Kind),
		Questions:    questions,
		States:       states,
		CurrentIndex: snap.CurrentIndex,
		Status:       status,
	}, nil
}
