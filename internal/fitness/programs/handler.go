package programs

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
	log "github.com/sirupsen/logrus"
)

type programsRepo interface {
	Add(ctx context.Context, userID string, params AddParams) (*Program, error)
	List(ctx context.Context, userID string) ([]Program, error)
	Get(ctx context.Context, userID string, id int) (*Program, error)
	AddExercise(ctx context.Context, userID string, programID int, params AddExerciseParams) (*ProgramExercise, error)
	ListExercises(ctx context.Context, userID string, programID int) ([]ProgramExercise, error)
	Delete(ctx context.Context, userID string, id int) error
	Deactivate(ctx context.Context, userID string, id int) error
}

type DeleteProgramResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo    programsRepo
	metrics *metrics.Manager
}

func NewHandler(repo programsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programs, err := handler.repo.List(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "list programs")
		return
	}

	programsJson, err := json.Marshal(programs)
	if err != nil {
		log.Errorf("failed to marshal programs: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, programsJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.add")
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

	var params AddParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new program, unmarshal json params: %s", err)
		http.Error(w, "add program failed", http.StatusBadRequest)
		return
	}

	program, err := handler.repo.Add(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add program")
		return
	}

	programJson, err := json.Marshal(program)
	if err != nil {
		log.Errorf("failed to marshal new program: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterProgramsCreated.Inc()

	log.Debugf("new program added for [%s]: %s", userID, program.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, programJson, http.StatusCreated)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.addexercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programID, ok := programIDFromRequest(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params AddExerciseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new program exercise, unmarshal json params: %s", err)
		http.Error(w, "add program exercise failed", http.StatusBadRequest)
		return
	}

	step, err := handler.repo.AddExercise(ctx, userID, programID, params)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "add program exercise")
		return
	}

	stepJson, err := json.Marshal(step)
	if err != nil {
		log.Errorf("failed to marshal program exercise: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, stepJson, http.StatusCreated)
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.listexercises")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programID, ok := programIDFromRequest(w, r)
	if !ok {
		return
	}

	steps, err := handler.repo.ListExercises(ctx, userID, programID)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "list program exercises")
		return
	}

	stepsJson, err := json.Marshal(steps)
	if err != nil {
		log.Errorf("failed to marshal program exercises: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, stepsJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programID, ok := programIDFromRequest(w, r)
	if !ok {
		return
	}

	handler.deleteProgram(ctx, w, userID, programID)
}

// HandleDeleteForm is the form-submitted variant of program deletion,
// taking a numeric id field from the POST body.
func (handler *Handler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.deleteform")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Tracef("delete program, parse form: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	idStr := r.Form.Get("id")
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	programID, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	handler.deleteProgram(ctx, w, userID, programID)
}

func (handler *Handler) deleteProgram(ctx context.Context, w http.ResponseWriter, userID string, programID int) {
	if err := handler.repo.Delete(ctx, userID, programID); err != nil {
		fitness.WriteStoreError(w, err, "delete program")
		return
	}

	deleteRespJson, err := json.Marshal(DeleteProgramResponse{
		DeletedID: programID,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("program %d deleted for [%s]", programID, userID)
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.deactivate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	programID, ok := programIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Deactivate(ctx, userID, programID); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		fitness.WriteStoreError(w, err, "deactivate program")
		return
	}

	pkg.WriteJSONResponseOK(w, `{"deactivated":true}`)
}

func programIDFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
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
