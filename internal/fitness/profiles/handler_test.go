package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/fitness"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepo is an in-memory profilesRepo.
type testRepo struct {
	profiles map[string]*Profile
	nextID   int
}

func newTestRepo() *testRepo {
	return &testRepo{
		profiles: map[string]*Profile{},
		nextID:   1,
	}
}

func (r *testRepo) GetOrCreate(_ context.Context, userID string) (*Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	now := time.Now()
	p := &Profile{
		ID:        r.nextID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.nextID++
	r.profiles[userID] = p
	return p, nil
}

func (r *testRepo) Update(_ context.Context, userID string, params UpdateParams) (*Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if params.DisplayName != nil {
		p.DisplayName = params.DisplayName
	}
	if params.Bio != nil {
		p.Bio = params.Bio
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (r *testRepo) List(_ context.Context) ([]Profile, error) {
	all := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		all = append(all, *p)
	}
	return all, nil
}

// notConfiguredRepo mimics a store started without a database connection.
type notConfiguredRepo struct {
	err error
}

func (r *notConfiguredRepo) GetOrCreate(context.Context, string) (*Profile, error) {
	return nil, r.err
}
func (r *notConfiguredRepo) Update(context.Context, string, UpdateParams) (*Profile, error) {
	return nil, r.err
}
func (r *notConfiguredRepo) List(context.Context) ([]Profile, error) {
	return nil, r.err
}

func TestHandler_HandleGet_CreatesOnFirstAccess(t *testing.T) {
	repo := newTestRepo()
	h := NewHandler(repo)

	req := httptest.NewRequest("GET", "/profile", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	h.HandleGet(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var first Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.Equal(t, "user-1", first.UserID)
	assert.Nil(t, first.DisplayName)
	assert.Nil(t, first.Bio)

	// second call returns the same identity, no second row
	rr = httptest.NewRecorder()
	h.HandleGet(rr, httptest.NewRequest("GET", "/profile", nil).
		WithContext(auth.ContextWithUserID(context.Background(), "user-1")))
	require.Equal(t, http.StatusOK, rr.Code)

	var second Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)
}

func TestHandler_HandleGet_NoUser(t *testing.T) {
	h := NewHandler(newTestRepo())

	rr := httptest.NewRecorder()
	h.HandleGet(rr, httptest.NewRequest("GET", "/profile", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_HandleUpdate(t *testing.T) {
	repo := newTestRepo()
	h := NewHandler(repo)

	body := strings.NewReader(`{"displayName":"Serj","bio":"lifting things"}`)
	req := httptest.NewRequest("POST", "/profile", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	h.HandleUpdate(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.NotNil(t, updated.DisplayName)
	assert.Equal(t, "Serj", *updated.DisplayName)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "lifting things", *updated.Bio)
}

func TestHandler_HandleListUsers_ProjectsProfiles(t *testing.T) {
	repo := newTestRepo()
	h := NewHandler(repo)

	displayName := gofakeit.Name()
	_, err := repo.GetOrCreate(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = repo.Update(context.Background(), "user-1", UpdateParams{DisplayName: &displayName})
	require.NoError(t, err)
	_, err = repo.GetOrCreate(context.Background(), "user-2")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleListUsers(rr, httptest.NewRequest("GET", "/users", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var users []User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 2)

	namesByUser := map[string]string{}
	for _, u := range users {
		namesByUser[u.UserID] = u.Name
	}
	assert.Equal(t, displayName, namesByUser["user-1"])
	assert.Equal(t, "", namesByUser["user-2"])
}

func TestHandler_NotConfigured_SurfacedAsError(t *testing.T) {
	h := NewHandler(&notConfiguredRepo{err: fitness.ErrNotConfigured})

	req := httptest.NewRequest("GET", "/api/profiles", nil)
	rr := httptest.NewRecorder()
	h.HandleListProfiles(rr, req)

	// not configured is an explicit error, not an empty 200 list
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"storage not configured"}`, rr.Body.String())
}
