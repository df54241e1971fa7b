package test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/fittracker/internal/fitness/body"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestBody_Measurements() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	weight := decimal.RequireFromString("82.5")
	status, respBytes := doRequest(ctx, t, "POST", "/measurements", token, body.AddMeasurementParams{
		MeasurementDate: time.Now().UTC(),
		Weight:          &weight,
		Measurements: map[string]decimal.Decimal{
			"chest": decimal.RequireFromString("101.5"),
			"waist": decimal.RequireFromString("84"),
		},
	})
	require.Equal(t, http.StatusCreated, status)

	var measurement body.Measurement
	require.NoError(t, json.Unmarshal(respBytes, &measurement))
	require.NotNil(t, measurement.Weight)
	assert.True(t, measurement.Weight.Equal(weight))

	status, respBytes = doRequest(ctx, t, "GET", "/measurements", token, nil)
	require.Equal(t, http.StatusOK, status)

	var measurements []body.Measurement
	require.NoError(t, json.Unmarshal(respBytes, &measurements))
	require.NotEmpty(t, measurements)
	assert.True(t, measurements[0].Measurements["chest"].Equal(decimal.RequireFromString("101.5")))
}

func (s *IntegrationTestSuite) TestBody_EmptyMeasurementRejected() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, _ := doRequest(ctx, t, "POST", "/measurements", token, body.AddMeasurementParams{
		MeasurementDate: time.Now().UTC(),
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestBody_Photos() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	// a dead link is logged but the photo is still stored
	status, respBytes := doRequest(ctx, t, "POST", "/photos", token, body.AddPhotoParams{
		PhotoURL:  "https://example.com/photos/front-2026-08.jpg",
		PhotoDate: time.Now().UTC(),
	})
	require.Equal(t, http.StatusCreated, status)

	var photo body.Photo
	require.NoError(t, json.Unmarshal(respBytes, &photo))
	assert.Equal(t, testUserID, photo.UserID)

	// relative urls are rejected up front
	status, _ = doRequest(ctx, t, "POST", "/photos", token, body.AddPhotoParams{
		PhotoURL:  "/photos/front.jpg",
		PhotoDate: time.Now().UTC(),
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, respBytes = doRequest(ctx, t, "GET", "/photos", token, nil)
	require.Equal(t, http.StatusOK, status)
	var photos []body.Photo
	require.NoError(t, json.Unmarshal(respBytes, &photos))
	assert.NotEmpty(t, photos)
}
