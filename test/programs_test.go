package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/fittracker/internal/fitness/exercises"
	"github.com/2beens/fittracker/internal/fitness/programs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPrograms_DefaultsAndExercises() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/programs", token, programs.AddParams{
		Name: "Starting Strength",
	})
	require.Equal(t, http.StatusCreated, status)

	var program programs.Program
	require.NoError(t, json.Unmarshal(respBytes, &program))
	assert.Equal(t, testUserID, program.UserID)
	assert.Equal(t, 4, program.DurationWeeks)
	assert.Equal(t, 1, program.DifficultyLevel)
	assert.True(t, program.IsActive)

	// pick a seeded exercise to attach
	status, respBytes = doRequest(ctx, t, "GET", "/exercises?search=squats", "", nil)
	require.Equal(t, http.StatusOK, status)
	var searchResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &searchResp))
	require.NotEmpty(t, searchResp.Exercises)
	exerciseID := searchResp.Exercises[0].ID

	targetSets := 5
	status, respBytes = doRequest(ctx, t, "POST", fmt.Sprintf("/programs/%d/exercises", program.ID), token, programs.AddExerciseParams{
		ExerciseID: exerciseID,
		DayNumber:  1,
		OrderIndex: 1,
		TargetSets: &targetSets,
	})
	require.Equal(t, http.StatusCreated, status)

	var step programs.ProgramExercise
	require.NoError(t, json.Unmarshal(respBytes, &step))
	assert.Equal(t, 60, step.RestDuration)

	status, respBytes = doRequest(ctx, t, "GET", fmt.Sprintf("/programs/%d/exercises", program.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	var steps []programs.ProgramExercise
	require.NoError(t, json.Unmarshal(respBytes, &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, exerciseID, steps[0].ExerciseID)
}

func (s *IntegrationTestSuite) TestPrograms_ScopedToOwner() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	ownerToken := s.newSessionToken(ctx, testUserID)
	otherToken := s.newSessionToken(ctx, testOtherUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/programs", ownerToken, programs.AddParams{
		Name: "Owner Only Program",
	})
	require.Equal(t, http.StatusCreated, status)
	var program programs.Program
	require.NoError(t, json.Unmarshal(respBytes, &program))

	// another user cannot see its exercises
	status, _ = doRequest(ctx, t, "GET", fmt.Sprintf("/programs/%d/exercises", program.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// nor deactivate it
	status, _ = doRequest(ctx, t, "POST", fmt.Sprintf("/programs/%d/deactivate", program.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// the owner can
	status, _ = doRequest(ctx, t, "POST", fmt.Sprintf("/programs/%d/deactivate", program.ID), ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestPrograms_FormDeleteIsIdempotent() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/programs", token, programs.AddParams{
		Name: "Short Lived Program",
	})
	require.Equal(t, http.StatusCreated, status)
	var program programs.Program
	require.NoError(t, json.Unmarshal(respBytes, &program))

	form := url.Values{}
	form.Set("id", fmt.Sprintf("%d", program.ID))

	// deleting twice is fine, the second delete is a no-op
	for i := 0; i < 2; i++ {
		req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+"/programs/delete", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-FITTRACKER-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	status, respBytes = doRequest(ctx, t, "GET", "/programs", token, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []programs.Program
	require.NoError(t, json.Unmarshal(respBytes, &listed))
	for _, p := range listed {
		assert.NotEqual(t, program.ID, p.ID)
	}
}
