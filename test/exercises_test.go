package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/fittracker/internal/fitness/exercises"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestExercises_SeededCatalog() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	// the catalog is public, no token needed
	status, respBytes := doRequest(ctx, t, "GET", "/exercises", "", nil)
	require.Equal(t, http.StatusOK, status)

	var searchResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &searchResp))
	require.GreaterOrEqual(t, searchResp.Total, 4)

	names := make(map[string]bool)
	for _, e := range searchResp.Exercises {
		names[e.Name] = true
	}
	assert.True(t, names["Push-ups"])
	assert.True(t, names["Squats"])
	assert.True(t, names["Running"])
	assert.True(t, names["Bench Press"])
}

func (s *IntegrationTestSuite) TestExercises_SearchFilters() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	status, respBytes := doRequest(ctx, t, "GET", "/exercises?search=press&category=strength", "", nil)
	require.Equal(t, http.StatusOK, status)

	var searchResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &searchResp))
	require.NotEmpty(t, searchResp.Exercises)
	for _, e := range searchResp.Exercises {
		assert.Equal(t, exercises.CategoryStrength, e.Category)
	}

	status, _ = doRequest(ctx, t, "GET", "/exercises?category=yodeling", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestExercises_AddIsPrivate() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/exercises", token, exercises.Exercise{
		Name:            "Goblet Squat",
		Category:        exercises.CategoryStrength,
		MuscleGroups:    []string{"legs", "glutes"},
		Equipment:       []string{"dumbbell"},
		DifficultyLevel: 2,
	})
	require.Equal(t, http.StatusCreated, status)

	var added exercises.Exercise
	require.NoError(t, json.Unmarshal(respBytes, &added))
	require.NotNil(t, added.CreatedBy)
	assert.Equal(t, testUserID, *added.CreatedBy)
	assert.False(t, added.IsPublic)

	// private exercises are excluded from the public listing
	status, respBytes = doRequest(ctx, t, "GET", "/exercises?search=goblet", "", nil)
	require.Equal(t, http.StatusOK, status)
	var publicResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &publicResp))
	assert.Empty(t, publicResp.Exercises)

	// but visible to their owner via mine=true
	status, respBytes = doRequest(ctx, t, "GET", "/exercises?search=goblet&mine=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	var mineResp exercises.SearchResponse
	require.NoError(t, json.Unmarshal(respBytes, &mineResp))
	require.Len(t, mineResp.Exercises, 1)

	// and fetchable by id
	status, respBytes = doRequest(ctx, t, "GET", fmt.Sprintf("/exercises/%d", added.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var fetched exercises.Exercise
	require.NoError(t, json.Unmarshal(respBytes, &fetched))
	assert.Equal(t, added.Name, fetched.Name)
}
