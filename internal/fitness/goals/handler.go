package goals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type goalsRepo interface {
	AddGoal(ctx context.Context, userID string, params AddGoalParams) (*Goal, error)
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	UpdateProgress(ctx context.Context, userID string, id int, currentValue decimal.Decimal) error
	MarkAchieved(ctx context.Context, userID string, id int) error
	AddRecord(ctx context.Context, userID string, params AddRecordParams) (*Record, error)
	ListRecords(ctx context.Context, userID string) ([]Record, error)
	AddAchievement(ctx context.Context, userID string, params AddAchievementParams) (*Achievement, error)
	ListAchievements(ctx context.Context, userID string) ([]Achievement, error)
}

type UpdateProgressParams struct {
	CurrentValue decimal.Decimal `json:"currentValue"`
}

type Handler struct {
	repo    goalsRepo
	metrics *metrics.Manager
}

func NewHandler(repo goalsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	goals, err := handler.repo.ListGoals(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "list goals")
		return
	}

	writeJSON(w, goals, http.StatusOK, "goals")
}

func (handler *Handler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.add")
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

	var params AddGoalParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new goal, unmarshal json params: %s", err)
		http.Error(w, "add goal failed", http.StatusBadRequest)
		return
	}

	goal, err := handler.repo.AddGoal(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add goal")
		return
	}

	writeJSON(w, goal, http.StatusCreated, "goal")
}

func (handler *Handler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.updateprogress")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	goalID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	var params UpdateProgressParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("update goal progress, unmarshal json params: %s", err)
		http.Error(w, "update goal progress failed", http.StatusBadRequest)
		return
	}

	if err := handler.repo.UpdateProgress(ctx, userID, goalID, params.CurrentValue); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "update goal progress")
		return
	}

	pkg.WriteJSONResponseOK(w, `{"updated":true}`)
}

func (handler *Handler) HandleMarkAchieved(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.markachieved")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	goalID, ok := idFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.repo.MarkAchieved(ctx, userID, goalID); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "mark goal achieved")
		return
	}

	handler.metrics.CounterGoalsAchieved.Inc()

	log.Debugf("goal %d achieved by [%s]", goalID, userID)
	pkg.WriteJSONResponseOK(w, `{"achieved":true}`)
}

func (handler *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.listrecords")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	records, err := handler.repo.ListRecords(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "list records")
		return
	}

	writeJSON(w, records, http.StatusOK, "records")
}

func (handler *Handler) HandleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.addrecord")
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

	var params AddRecordParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new record, unmarshal json params: %s", err)
		http.Error(w, "add record failed", http.StatusBadRequest)
		return
	}

	record, err := handler.repo.AddRecord(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add record")
		return
	}

	writeJSON(w, record, http.StatusCreated, "record")
}

func (handler *Handler) HandleListAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.listachievements")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	achievements, err := handler.repo.ListAchievements(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "list achievements")
		return
	}

	writeJSON(w, achievements, http.StatusOK, "achievements")
}

func (handler *Handler) HandleAddAchievement(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.addachievement")
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

	var params AddAchievementParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new achievement, unmarshal json params: %s", err)
		http.Error(w, "add achievement failed", http.StatusBadRequest)
		return
	}

	achievement, err := handler.repo.AddAchievement(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add achievement")
		return
	}

	writeJSON(w, achievement, http.StatusCreated, "achievement")
}

func writeJSON(w http.ResponseWriter, payload any, statusCode int, what string) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("failed to marshal %s: %s", what, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payloadJson, statusCode)
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
