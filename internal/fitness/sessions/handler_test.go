package sessions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testRepo is an in-memory sessionsRepo.
type testRepo struct {
	sessions      map[int]*Session
	exercises     map[int]*SessionExercise
	sets          []Set
	nextSessionID int
	nextSeID      int
}

func newTestRepo() *testRepo {
	return &testRepo{
		sessions:      map[int]*Session{},
		exercises:     map[int]*SessionExercise{},
		nextSessionID: 1,
		nextSeID:      1,
	}
}

func (r *testRepo) Start(_ context.Context, userID string, params StartParams) (*Session, error) {
	session := &Session{
		ID:          r.nextSessionID,
		UserID:      userID,
		ProgramID:   params.ProgramID,
		SessionName: params.SessionName,
		StartedAt:   time.Now(),
		Notes:       params.Notes,
		CreatedAt:   time.Now(),
	}
	r.nextSessionID++
	r.sessions[session.ID] = session
	return session, nil
}

func (r *testRepo) Finish(_ context.Context, userID string, id int, params FinishParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return ErrSessionNotFound
	}
	now := time.Now()
	session.CompletedAt = &now
	if params.Rating != nil {
		session.Rating = params.Rating
	}
	return nil
}

func (r *testRepo) AddExercise(_ context.Context, userID string, sessionID int, params AddExerciseParams) (*SessionExercise, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	session, ok := r.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	se := &SessionExercise{
		ID:         r.nextSeID,
		SessionID:  sessionID,
		ExerciseID: params.ExerciseID,
		OrderIndex: params.OrderIndex,
		Notes:      params.Notes,
		CreatedAt:  time.Now(),
	}
	r.nextSeID++
	r.exercises[se.ID] = se
	return se, nil
}

func (r *testRepo) AddSet(_ context.Context, userID string, sessionExerciseID int, params AddSetParams) (*Set, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	se, ok := r.exercises[sessionExerciseID]
	if !ok {
		return nil, ErrSessionExerciseNotFound
	}
	session := r.sessions[se.SessionID]
	if session == nil || session.UserID != userID {
		return nil, ErrSessionExerciseNotFound
	}
	se.CompletedSets++
	set := Set{
		ID:                len(r.sets) + 1,
		SessionExerciseID: sessionExerciseID,
		SetNumber:         params.SetNumber,
		Reps:              params.Reps,
		Weight:            params.Weight,
		CompletedAt:       time.Now(),
	}
	r.sets = append(r.sets, set)
	return &set, nil
}

func (r *testRepo) ListRecent(_ context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	sessions := make([]Session, 0)
	for _, s := range r.sessions {
		if s.UserID == userID && len(sessions) < limit {
			sessions = append(sessions, *s)
		}
	}
	return sessions, nil
}

func (r *testRepo) Delete(_ context.Context, userID string, id int) error {
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func newTestHandler(repo *testRepo) *Handler {
	return NewHandler(repo, metrics.NewTestManager())
}

func TestHandler_SessionLifecycle(t *testing.T) {
	repo := newTestRepo()
	h := newTestHandler(repo)

	// start
	req := httptest.NewRequest("POST", "/sessions/start", strings.NewReader(`{"sessionName":"Leg Day"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotNil(t, session.SessionName)
	assert.Equal(t, "Leg Day", *session.SessionName)
	assert.Nil(t, session.CompletedAt)

	// add an exercise
	req = httptest.NewRequest("POST", "/sessions/1/exercises", strings.NewReader(`{"exerciseId":2,"orderIndex":0}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec = httptest.NewRecorder()

	h.HandleAddExercise(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var se SessionExercise
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &se))
	assert.Equal(t, 0, se.CompletedSets)

	// log two sets
	for setNumber := 1; setNumber <= 2; setNumber++ {
		body := strings.NewReader(`{"setNumber":` + strconv.Itoa(setNumber) + `,"reps":8,"weight":"82.5"}`)
		req = httptest.NewRequest("POST", "/sessions/exercises/1/sets", body)
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
		req = mux.SetURLVars(req, map[string]string{"id": "1"})
		rec = httptest.NewRecorder()

		h.HandleAddSet(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, repo.exercises[1].CompletedSets)

	var set Set
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.NotNil(t, set.Weight)
	assert.Equal(t, "82.5", set.Weight.String())

	// finish with a rating
	req = httptest.NewRequest("POST", "/sessions/1/finish", strings.NewReader(`{"rating":4}`))
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec = httptest.NewRecorder()

	h.HandleFinish(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.sessions[1].CompletedAt)
	require.NotNil(t, repo.sessions[1].Rating)
	assert.Equal(t, 4, *repo.sessions[1].Rating)
}

func TestHandler_HandleFinish_InvalidRating(t *testing.T) {
	repo := newTestRepo()
	h := newTestHandler(repo)

	_, err := repo.Start(context.Background(), "user-1", StartParams{})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sessions/1/finish", strings.NewReader(`{"rating":6}`))
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.HandleFinish(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandleFinish_NoBody(t *testing.T) {
	repo := newTestRepo()
	h := newTestHandler(repo)

	_, err := repo.Start(context.Background(), "user-1", StartParams{})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sessions/1/finish", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.HandleFinish(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_HandleAddSet_UnknownExercise(t *testing.T) {
	h := newTestHandler(newTestRepo())

	req := httptest.NewRequest("POST", "/sessions/exercises/99/sets", strings.NewReader(`{"setNumber":1}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	rec := httptest.NewRecorder()

	h.HandleAddSet(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_HandleListRecent(t *testing.T) {
	repo := newTestRepo()
	h := newTestHandler(repo)

	for range [3]struct{}{} {
		_, err := repo.Start(context.Background(), "user-1", StartParams{})
		require.NoError(t, err)
	}
	_, err := repo.Start(context.Background(), "user-2", StartParams{})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/sessions/recent", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.HandleListRecent(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 3)
}
