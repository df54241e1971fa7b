package body

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
)

type bodyRepo interface {
	AddMeasurement(ctx context.Context, userID string, params AddMeasurementParams) (*Measurement, error)
	ListMeasurements(ctx context.Context, userID string, limit int) ([]Measurement, error)
	AddPhoto(ctx context.Context, userID string, params AddPhotoParams) (*Photo, error)
	ListPhotos(ctx context.Context, userID string) ([]Photo, error)
}

type urlChecker interface {
	Check(ctx context.Context, photoURL string) error
}

type Handler struct {
	repo       bodyRepo
	urlChecker urlChecker
}

func NewHandler(repo bodyRepo, urlChecker urlChecker) *Handler {
	return &Handler{
		repo:       repo,
		urlChecker: urlChecker,
	}
}

func (handler *Handler) HandleListMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.body.listmeasurements")
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

	measurements, err := handler.repo.ListMeasurements(ctx, userID, limit)
	if err != nil {
		fitness.WriteStoreError(w, err, "list measurements")
		return
	}

	measurementsJson, err := json.Marshal(measurements)
	if err != nil {
		log.Errorf("failed to marshal measurements: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, measurementsJson, http.StatusOK)
}

func (handler *Handler) HandleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.body.addmeasurement")
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

	var params AddMeasurementParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new measurement, unmarshal json params: %s", err)
		http.Error(w, "add measurement failed", http.StatusBadRequest)
		return
	}

	measurement, err := handler.repo.AddMeasurement(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add measurement")
		return
	}

	measurementJson, err := json.Marshal(measurement)
	if err != nil {
		log.Errorf("failed to marshal measurement: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, measurementJson, http.StatusCreated)
}

func (handler *Handler) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.body.listphotos")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	photos, err := handler.repo.ListPhotos(ctx, userID)
	if err != nil {
		fitness.WriteStoreError(w, err, "list photos")
		return
	}

	photosJson, err := json.Marshal(photos)
	if err != nil {
		log.Errorf("failed to marshal photos: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, photosJson, http.StatusOK)
}

func (handler *Handler) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.body.addphoto")
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

	var params AddPhotoParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new photo, unmarshal json params: %s", err)
		http.Error(w, "add photo failed", http.StatusBadRequest)
		return
	}

	photo, err := handler.repo.AddPhoto(ctx, userID, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add photo")
		return
	}

	// dead link detection is best effort, a failed probe never fails the add
	if err := handler.urlChecker.Check(ctx, photo.PhotoURL); err != nil {
		log.Warnf("photo %d url check: %s", photo.ID, err)
	}

	photoJson, err := json.Marshal(photo)
	if err != nil {
		log.Errorf("failed to marshal photo: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, photoJson, http.StatusCreated)
}
