package body

import (
	"context"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const defaultMeasurementsLimit = 10

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddMeasurement(ctx context.Context, userID string, params AddMeasurementParams) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.body.addmeasurement")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if userID == "" {
		return nil, fitness.NewValidationError("userId", "must not be empty")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	measurement := Measurement{
		UserID:            userID,
		MeasurementDate:   params.MeasurementDate,
		Weight:            params.Weight,
		BodyFatPercentage: params.BodyFatPercentage,
		MuscleMass:        params.MuscleMass,
		Measurements:      params.Measurements,
		Notes:             params.Notes,
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO body_measurement
				(user_id, measurement_date, weight, body_fat_percentage, muscle_mass, measurements, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at;`,
		measurement.UserID, measurement.MeasurementDate,
		fitness.DecimalArg(measurement.Weight), fitness.DecimalArg(measurement.BodyFatPercentage),
		fitness.DecimalArg(measurement.MuscleMass), measurement.Measurements, measurement.Notes,
	).Scan(&measurement.ID, &measurement.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &measurement, nil
}

// ListMeasurements returns the user's snapshots by measurement date
// descending, capped at limit (default 10).
func (r *Repo) ListMeasurements(ctx context.Context, userID string, limit int) (_ []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.body.listmeasurements")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if limit <= 0 {
		limit = defaultMeasurementsLimit
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, measurement_date, weight::text, body_fat_percentage::text,
				muscle_mass::text, measurements, notes, created_at
			FROM body_measurement
			WHERE user_id = $1
			ORDER BY measurement_date DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2measurements(rows)
}

func (r *Repo) AddPhoto(ctx context.Context, userID string, params AddPhotoParams) (_ *Photo, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.body.addphoto")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if userID == "" {
		return nil, fitness.NewValidationError("userId", "must not be empty")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	photo := Photo{
		UserID:      userID,
		PhotoURL:    params.PhotoURL,
		PhotoDate:   params.PhotoDate,
		Category:    params.Category,
		Description: params.Description,
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO progress_photo (user_id, photo_url, photo_date, category, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at;`,
		photo.UserID, photo.PhotoURL, photo.PhotoDate, photo.Category, photo.Description,
	).Scan(&photo.ID, &photo.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &photo, nil
}

func (r *Repo) ListPhotos(ctx context.Context, userID string) (_ []Photo, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.body.listphotos")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, photo_url, photo_date, category, description, created_at
			FROM progress_photo
			WHERE user_id = $1
			ORDER BY photo_date DESC;`,
		userID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2photos(rows)
}

func rows2measurements(rows pgx.Rows) ([]Measurement, error) {
	var measurements []Measurement
	for rows.Next() {
		var id int
		var userID string
		var measurementDate time.Time
		var weightStr, bodyFatStr, muscleMassStr *string
		var girths map[string]decimal.Decimal
		var notes *string
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &measurementDate, &weightStr, &bodyFatStr,
			&muscleMassStr, &girths, &notes, &createdAt,
		); err != nil {
			return nil, err
		}

		weight, err := fitness.ParseDecimal(weightStr)
		if err != nil {
			return nil, err
		}
		bodyFat, err := fitness.ParseDecimal(bodyFatStr)
		if err != nil {
			return nil, err
		}
		muscleMass, err := fitness.ParseDecimal(muscleMassStr)
		if err != nil {
			return nil, err
		}

		measurements = append(measurements, Measurement{
			ID:                id,
			UserID:            userID,
			MeasurementDate:   measurementDate,
			Weight:            weight,
			BodyFatPercentage: bodyFat,
			MuscleMass:        muscleMass,
			Measurements:      girths,
			Notes:             notes,
			CreatedAt:         createdAt,
		})
	}

	if measurements == nil {
		measurements = make([]Measurement, 0)
	}

	return measurements, nil
}

func rows2photos(rows pgx.Rows) ([]Photo, error) {
	var photos []Photo
	for rows.Next() {
		var id int
		var userID, photoURL string
		var photoDate time.Time
		var category, description *string
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &photoURL, &photoDate, &category, &description, &createdAt,
		); err != nil {
			return nil, err
		}

		photos = append(photos, Photo{
			ID:          id,
			UserID:      userID,
			PhotoURL:    photoURL,
			PhotoDate:   photoDate,
			Category:    category,
			Description: description,
			CreatedAt:   createdAt,
		})
	}

	if photos == nil {
		photos = make([]Photo, 0)
	}

	return photos, nil
}
