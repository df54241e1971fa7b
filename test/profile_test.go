package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/fittracker/internal/fitness/profiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestProfile_CreatedOnFirstAccess() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	// first access creates a blank profile
	status, respBytes := doRequest(ctx, t, "GET", "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	var profile profiles.Profile
	require.NoError(t, json.Unmarshal(respBytes, &profile))
	assert.Equal(t, testUserID, profile.UserID)
	assert.Nil(t, profile.DisplayName)

	// second access returns the same row
	status, respBytes = doRequest(ctx, t, "GET", "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	var profileAgain profiles.Profile
	require.NoError(t, json.Unmarshal(respBytes, &profileAgain))
	assert.Equal(t, profile.ID, profileAgain.ID)

	// update sticks
	displayName := "Test User"
	status, respBytes = doRequest(ctx, t, "POST", "/profile", token, profiles.UpdateParams{
		DisplayName: &displayName,
	})
	require.Equal(t, http.StatusOK, status)

	var updated profiles.Profile
	require.NoError(t, json.Unmarshal(respBytes, &updated))
	require.NotNil(t, updated.DisplayName)
	assert.Equal(t, displayName, *updated.DisplayName)
}

func (s *IntegrationTestSuite) TestProfile_Unauthorized() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	status, _ := doRequest(ctx, t, "GET", "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(ctx, t, "GET", "/profile", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestUsers_ListsProfileProjections() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testOtherUserID)

	// make sure at least one profile row exists
	status, _ := doRequest(ctx, t, "GET", "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, respBytes := doRequest(ctx, t, "GET", "/api/users", token, nil)
	require.Equal(t, http.StatusOK, status)

	var users []profiles.User
	require.NoError(t, json.Unmarshal(respBytes, &users))
	require.NotEmpty(t, users)

	found := false
	for _, u := range users {
		if u.UserID == testOtherUserID {
			found = true
		}
	}
	assert.True(t, found)
}
