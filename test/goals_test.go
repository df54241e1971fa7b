package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fittracker/internal/fitness/goals"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestGoals_ProgressAndAchieve() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	targetValue := decimal.RequireFromString("150")
	targetUnit := "kg"
	status, respBytes := doRequest(ctx, t, "POST", "/goals", token, goals.AddGoalParams{
		Title:       "Squat 150",
		TargetValue: &targetValue,
		TargetUnit:  &targetUnit,
	})
	require.Equal(t, http.StatusCreated, status)

	var goal goals.Goal
	require.NoError(t, json.Unmarshal(respBytes, &goal))
	assert.True(t, goal.CurrentValue.IsZero())
	assert.False(t, goal.IsAchieved)

	status, _ = doRequest(ctx, t, "PUT", fmt.Sprintf("/goals/%d/progress", goal.ID), token, goals.UpdateProgressParams{
		CurrentValue: decimal.RequireFromString("140"),
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(ctx, t, "POST", fmt.Sprintf("/goals/%d/achieve", goal.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, respBytes = doRequest(ctx, t, "GET", "/goals", token, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []goals.Goal
	require.NoError(t, json.Unmarshal(respBytes, &listed))

	var achieved *goals.Goal
	for i := range listed {
		if listed[i].ID == goal.ID {
			achieved = &listed[i]
		}
	}
	require.NotNil(t, achieved)
	assert.True(t, achieved.IsAchieved)
	assert.NotNil(t, achieved.AchievedAt)
	assert.True(t, achieved.CurrentValue.Equal(decimal.RequireFromString("140")))
}

func (s *IntegrationTestSuite) TestGoals_AchieveMissingIsNotFound() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, _ := doRequest(ctx, t, "POST", "/goals/987654/achieve", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestRecordsAndAchievements() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	unit := "kg"
	status, respBytes := doRequest(ctx, t, "POST", "/records", token, goals.AddRecordParams{
		RecordType:   goals.RecordTypeMaxWeight,
		Value:        decimal.RequireFromString("152.5"),
		Unit:         &unit,
		AchievedDate: time.Now().UTC(),
	})
	require.Equal(t, http.StatusCreated, status)

	var record goals.Record
	require.NoError(t, json.Unmarshal(respBytes, &record))
	assert.True(t, record.Value.Equal(decimal.RequireFromString("152.5")))

	status, respBytes = doRequest(ctx, t, "GET", "/records", token, nil)
	require.Equal(t, http.StatusOK, status)
	var records []goals.Record
	require.NoError(t, json.Unmarshal(respBytes, &records))
	assert.NotEmpty(t, records)

	points := 50
	status, respBytes = doRequest(ctx, t, "POST", "/achievements", token, goals.AddAchievementParams{
		AchievementType: "streak",
		Title:           "7 day streak",
		Points:          &points,
	})
	require.Equal(t, http.StatusCreated, status)

	var achievement goals.Achievement
	require.NoError(t, json.Unmarshal(respBytes, &achievement))
	assert.Equal(t, points, achievement.Points)

	status, respBytes = doRequest(ctx, t, "GET", "/achievements", token, nil)
	require.Equal(t, http.StatusOK, status)
	var achievements []goals.Achievement
	require.NoError(t, json.Unmarshal(respBytes, &achievements))
	assert.NotEmpty(t, achievements)
}
