package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type sessionsRepo interface {
	Start(ctx context.Context, userID string, params StartParams) (*Session, error)
	Finish(ctx context.Context, userID string, id int, params FinishParams) error
	AddExercise(ctx context.Context, userID string, sessionID int, params AddExerciseParams) (*SessionExercise, error)
	AddSet(ctx context.Context, userID string, sessionExerciseID int, params AddSetParams) (*Set, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]Session, error)
	Delete(ctx context.Context, userID string, id int) error
}

type DeleteSessionResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo    sessionsRepo
	metrics *metrics.Manager
}

func NewHandler(repo sessionsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.start")
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

	var params StartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("start session, unmarshal json params: %s", err)
		http.Error(w, "start session failed", http.StatusBadRequest)
		return
	}

	session, err := handler.repo.Start(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "start session")
		return
	}

	handler.metrics.CounterSessionsStarted.Inc()

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("failed to marshal session: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("session %d started for [%s]", session.ID, userID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusCreated)
}

func (handler *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.finish")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	sessionID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	// body is optional, finishing without a rating is fine
	var params FinishParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		log.Tracef("finish session, unmarshal json params: %s", err)
		http.Error(w, "finish session failed", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Finish(ctx, userID, sessionID, params); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "finish session")
		return
	}

	pkg.WriteJSONResponseOK(w, `{"finished":true}`)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.addexercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	sessionID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params AddExerciseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("session add exercise, unmarshal json params: %s", err)
		http.Error(w, "add session exercise failed", http.StatusBadRequest)
		return
	}

	se, err := handler.repo.AddExercise(ctx, userID, sessionID, params)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "add session exercise")
		return
	}

	seJson, err := json.Marshal(se)
	if err != nil {
		log.Errorf("failed to marshal session exercise: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, seJson, http.StatusCreated)
}

func (handler *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.addset")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	sessionExerciseID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params AddSetParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("add set, unmarshal json params: %s", err)
		http.Error(w, "add set failed", http.StatusBadRequest)
		return
	}

	set, err := handler.repo.AddSet(ctx, userID, sessionExerciseID, params)
	if err != nil {
		if errors.Is(err, ErrSessionExerciseNotFound) {
			http.Error(w, "session exercise not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "add set")
		return
	}

	handler.metrics.CounterSetsLogged.Inc()

	setJson, err := json.Marshal(set)
	if err != nil {
		log.Errorf("failed to marshal set: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, setJson, http.StatusCreated)
}

func (handler *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.listrecent")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "error, limit NaN", http.StatusBadRequest)
			return
		}
	}

	sessions, err := handler.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		fitness.WriteStoreError(w, err, "list recent sessions")
		return
	}

	sessionsJson, err := json.Marshal(sessions)
	if err != nil {
		log.Errorf("failed to marshal sessions: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionsJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	sessionID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "delete session")
		return
	}

	deleteRespJson, err := json.Marshal(DeleteSessionResponse{
		DeletedID: sessionID,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func idFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
