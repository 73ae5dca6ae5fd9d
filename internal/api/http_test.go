package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Token = "test-token"
	cfg.Timeout = 2 * time.Second
	return New(cfg, zerolog.Nop())
}

func TestFetchQuestions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "quiz", r.URL.Query().Get("kind"))
			w.Write([]byte(`{"questions":[
				{"id":"q1","subject":"physics","chapter":"kinematics","prompt":"v = ?","kind":"numeric"},
				{"id":"q2","prompt":"Pick one","kind":"multiple-choice","options":["a","b","c","d"]}
			]}`))
		}))

		qs, err := client.FetchQuestions(context.Background(), KindQuiz)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Equal(t, "q1", qs[0].ID)
		assert.Equal(t, AnswerNumeric, qs[0].Kind)
		assert.Len(t, qs[1].Options, 4)
	})

	t.Run("schema violation becomes data inconsistency", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// "kind" outside the enum.
			w.Write([]byte(`{"questions":[{"id":"q1","prompt":"?","kind":"essay"}]}`))
		}))

		_, err := client.FetchQuestions(context.Background(), KindQuiz)
		var inconsistent *ErrDataInconsistency
		require.ErrorAs(t, err, &inconsistent)
	})

	t.Run("malformed JSON becomes data inconsistency", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"questions": [`))
		}))

		_, err := client.FetchQuestions(context.Background(), KindQuiz)
		var inconsistent *ErrDataInconsistency
		require.ErrorAs(t, err, &inconsistent)
	})
}

func TestSubmitAnswer(t *testing.T) {
	t.Run("carries idempotency key header", func(t *testing.T) {
		var gotKey string
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Idempotency-Key")
			w.Write([]byte(`{"correct":true,"correct_answer":"42","explanation":"because"}`))
		}))

		fb, err := client.SubmitAnswer(context.Background(), SubmitRequest{
			SessionID:        "s1",
			QuestionID:       "q1",
			Answer:           "42",
			IdempotencyToken: "tok-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", gotKey)
		assert.True(t, fb.Correct)
		assert.Equal(t, "42", fb.CorrectAnswer)
	})

	t.Run("server validation error is not retriable", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"answer must be numeric"}`))
		}))

		_, err := client.SubmitAnswer(context.Background(), SubmitRequest{SessionID: "s1"})
		var valErr *ErrValidation
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "answer must be numeric", valErr.Message)
		assert.False(t, Retriable(err))
	})
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		check     func(t *testing.T, err error)
		retriable bool
	}{
		{
			name:   "401 is auth required",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var authErr *ErrAuthRequired
				assert.ErrorAs(t, err, &authErr)
			},
		},
		{
			name:   "500 is server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var srvErr *ErrServer
				require.ErrorAs(t, err, &srvErr)
				assert.Equal(t, http.StatusInternalServerError, srvErr.Status)
			},
			retriable: true,
		},
		{
			name:   "503 is server error",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				var srvErr *ErrServer
				assert.ErrorAs(t, err, &srvErr)
			},
			retriable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"boom"}`))
			}))

			_, err := client.CompleteSession(context.Background(), "s1")
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.retriable, Retriable(err))
		})
	}
}

func TestTimeoutIsDistinctFromConnectionError(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		client.cfg.Timeout = 20 * time.Millisecond

		_, err := client.CompleteSession(context.Background(), "s1")
		var netErr *ErrNetwork
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout)
		assert.True(t, Retriable(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseURL = "http://127.0.0.1:1" // nothing listens here
		cfg.Token = "test-token"
		cfg.Timeout = time.Second
		client := New(cfg, zerolog.Nop())

		_, err := client.CompleteSession(context.Background(), "s1")
		var netErr *ErrNetwork
		require.ErrorAs(t, err, &netErr)
		assert.False(t, netErr.Timeout)
	})
}

func TestGetUnlockState(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/students/stu-1/unlocks", r.URL.Path)
		w.Write([]byte(`{
			"unlocked_chapters":["ch-01"],
			"bonus_unlocked":["ch-40"],
			"start_date":"2024-01-01T00:00:00Z",
			"target_date":"2026-01-01T00:00:00Z",
			"curriculum_order":["ch-01","ch-02","ch-40"]
		}`))
	}))

	state, err := client.GetUnlockState(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch-40"}, state.BonusUnlocked)
	assert.Equal(t, 2024, state.StartDate.Year())
	assert.Len(t, state.CurriculumOrder, 3)
}

func TestUnlockChapterEarly(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/students/stu-1/unlocks/ch-40", r.URL.Path)
		w.Write([]byte(`{"unlocked":true,"correct":4}`))
	}))

	outcome, err := client.UnlockChapterEarly(context.Background(), UnlockAttempt{
		StudentID: "stu-1",
		ChapterID: "ch-40",
		Answers:   []string{"a", "b", "c", "d", "a"},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Unlocked)
	assert.Equal(t, 4, outcome.Correct)
}

func TestRetriable(t *testing.T) {
	assert.True(t, Retriable(&ErrNetwork{Err: errors.New("x")}))
	assert.True(t, Retriable(&ErrServer{Status: 500}))
	assert.False(t, Retriable(&ErrValidation{Message: "x"}))
	assert.False(t, Retriable(&ErrAuthRequired{}))
	assert.False(t, Retriable(&ErrDataInconsistency{}))
	assert.False(t, Retriable(errors.New("plain")))
}
