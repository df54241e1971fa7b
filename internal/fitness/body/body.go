package body

import (
	"net/url"
	"time"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/shopspring/decimal"
)

// Measurement is one body-measurement snapshot. The Measurements map
// holds the free-form named girths (chest, waist, ...) stored as jsonb.
type Measurement struct {
	ID                int                        `json:"id"`
	UserID            string                     `json:"userId"`
	MeasurementDate   time.Time                  `json:"measurementDate"`
	Weight            *decimal.Decimal           `json:"weight"`
	BodyFatPercentage *decimal.Decimal           `json:"bodyFatPercentage"`
	MuscleMass        *decimal.Decimal           `json:"muscleMass"`
	Measurements      map[string]decimal.Decimal `json:"measurements"`
	Notes             *string                    `json:"notes"`
	CreatedAt         time.Time                  `json:"createdAt"`
}

type AddMeasurementParams struct {
	MeasurementDate   time.Time                  `json:"measurementDate"`
	Weight            *decimal.Decimal           `json:"weight"`
	BodyFatPercentage *decimal.Decimal           `json:"bodyFatPercentage"`
	MuscleMass        *decimal.Decimal           `json:"muscleMass"`
	Measurements      map[string]decimal.Decimal `json:"measurements"`
	Notes             *string                    `json:"notes"`
}

func (p *AddMeasurementParams) Validate() error {
	if p.MeasurementDate.IsZero() {
		return fitness.NewValidationError("measurementDate", "must be set")
	}
	if p.Weight == nil && p.BodyFatPercentage == nil && p.MuscleMass == nil && len(p.Measurements) == 0 {
		return fitness.NewValidationError("measurements", "at least one measure must be given")
	}
	return nil
}

// Photo is a progress photo reference; the image itself lives elsewhere.
type Photo struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	PhotoURL    string    `json:"photoUrl"`
	PhotoDate   time.Time `json:"photoDate"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AddPhotoParams struct {
	PhotoURL    string    `json:"photoUrl"`
	PhotoDate   time.Time `json:"photoDate"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
}

func (p *AddPhotoParams) Validate() error {
	if p.PhotoURL == "" {
		return fitness.NewValidationError("photoUrl", "must not be empty")
	}
	parsed, err := url.Parse(p.PhotoURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fitness.NewValidationError("photoUrl", "must be an absolute URL")
	}
	if p.PhotoDate.IsZero() {
		return fitness.NewValidationError("photoDate", "must be set")
	}
	return nil
}
