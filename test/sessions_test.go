package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/fittracker/internal/fitness/exercises"
	"github.com/2beens/fittracker/internal/fitness/sessions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestSessions_FullLifecycle() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	sessionName := "morning push day"
	status, respBytes := doRequest(ctx, t, "POST", "/sessions/start", token, sessions.StartParams{
		SessionName: &sessionName,
	})
	require.Equal(t, http.StatusCreated, status)

	var workout sessions.Session
	require.NoError(t, json.Unmarshal(respBytes, &workout))
	assert.Equal(t, testUserID, workout.UserID)
	assert.Nil(t, workout.CompletedAt)

	// attach a seeded exercise
	status, respBytes = doRequest(ctx, t, "GET", "/exercises?search=bench", "", nil)
	require.Equal(t, http.StatusOK, status)
	var searchResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &searchResp))
	require.NotEmpty(t, searchResp.Exercises)

	status, respBytes = doRequest(ctx, t, "POST", fmt.Sprintf("/sessions/%d/exercises", workout.ID), token, sessions.AddExerciseParams{
		ExerciseID: searchResp.Exercises[0].ID,
		OrderIndex: 1,
	})
	require.Equal(t, http.StatusCreated, status)

	var sessionExercise sessions.SessionExercise
	require.NoError(t, json.Unmarshal(respBytes, &sessionExercise))
	assert.Equal(t, 0, sessionExercise.CompletedSets)

	// log two sets
	weight := decimal.RequireFromString("82.5")
	reps := 8
	for setNumber := 1; setNumber <= 2; setNumber++ {
		status, respBytes = doRequest(ctx, t, "POST", fmt.Sprintf("/sessions/exercises/%d/sets", sessionExercise.ID), token, sessions.AddSetParams{
			SetNumber: setNumber,
			Reps:      &reps,
			Weight:    &weight,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	var loggedSet sessions.Set
	require.NoError(t, json.Unmarshal(respBytes, &loggedSet))
	require.NotNil(t, loggedSet.Weight)
	assert.True(t, loggedSet.Weight.Equal(weight))

	// finish with a rating
	rating := 4
	status, _ = doRequest(ctx, t, "POST", fmt.Sprintf("/sessions/%d/finish", workout.ID), token, sessions.FinishParams{
		Rating: &rating,
	})
	require.Equal(t, http.StatusOK, status)

	// shows up finished in recent sessions
	status, respBytes = doRequest(ctx, t, "GET", "/sessions/recent", token, nil)
	require.Equal(t, http.StatusOK, status)
	var recent []sessions.Session
	require.NoError(t, json.Unmarshal(respBytes, &recent))
	require.NotEmpty(t, recent)

	var finished *sessions.Session
	for i := range recent {
		if recent[i].ID == workout.ID {
			finished = &recent[i]
		}
	}
	require.NotNil(t, finished)
	require.NotNil(t, finished.CompletedAt)
	require.NotNil(t, finished.Rating)
	assert.Equal(t, rating, *finished.Rating)
}

func (s *IntegrationTestSuite) TestSessions_InvalidRating() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/sessions/start", token, sessions.StartParams{})
	require.Equal(t, http.StatusCreated, status)
	var workout sessions.Session
	require.NoError(t, json.Unmarshal(respBytes, &workout))

	rating := 6
	status, _ = doRequest(ctx, t, "POST", fmt.Sprintf("/sessions/%d/finish", workout.ID), token, sessions.FinishParams{
		Rating: &rating,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestSessions_DeleteMissingIsNotFound() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, _ := doRequest(ctx, t, "DELETE", "/sessions/987654", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
