package profiles

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
)

type profilesRepo interface {
	GetOrCreate(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
}

// User is the projection of a profile row served by the users endpoint.
type User struct {
	ID     int    `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type Handler struct {
	repo profilesRepo
}

func NewHandler(repo profilesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	profile, err := handler.repo.GetOrCreate(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "get profile")
		return
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		http.Error(w, "update profile failed", http.StatusBadRequest)
		return
	}

	// make sure the row exists before updating it
	if _, err := handler.repo.GetOrCreate(ctx, userID); err != nil {
		fitness.WriteStoreError(w, err, "update profile, get-or-create")
		return
	}

	profile, err := handler.repo.Update(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "update profile")
		return
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal updated profile: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusOK)
}

// HandleListUsers serves the user list as JSON: profile rows projected
// down to identity and display name.
func (handler *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.listusers")
	defer span.End()

	profiles, err := handler.repo.List(ctx)
	if err != nil {
		fitness.WriteStoreError(w, err, "list users")
		return
	}

	users := make([]User, 0, len(profiles))
	for _, p := range profiles {
		name := ""
		if p.DisplayName != nil {
			name = *p.DisplayName
		}
		users = append(users, User{
			ID:     p.ID,
			UserID: p.UserID,
			Name:   name,
		})
	}

	usersJson, err := json.Marshal(users)
	if err != nil {
		log.Errorf("failed to marshal users: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, usersJson, http.StatusOK)
}

func (handler *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.list")
	defer span.End()

	profiles, err := handler.repo.List(ctx)
	if err != nil {
		fitness.WriteStoreError(w, err, "list profiles")
		return
	}

	profilesJson, err := json.Marshal(profiles)
	if err != nil {
		log.Errorf("failed to marshal profiles: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profilesJson, http.StatusOK)
}
