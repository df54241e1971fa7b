package goals

import (
	"time"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/shopspring/decimal"
)

// Goal is a user target with progress tracked against it.
type Goal struct {
	ID           int              `json:"id"`
	UserID       string           `json:"userId"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	TargetValue  *decimal.Decimal `json:"targetValue"`
	TargetUnit   *string          `json:"targetUnit"`
	TargetDate   *time.Time       `json:"targetDate"`
	CurrentValue decimal.Decimal  `json:"currentValue"`
	IsAchieved   bool             `json:"isAchieved"`
	CreatedAt    time.Time        `json:"createdAt"`
	AchievedAt   *time.Time       `json:"achievedAt"`
}

type AddGoalParams struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	TargetValue *decimal.Decimal `json:"targetValue"`
	TargetUnit  *string          `json:"targetUnit"`
	TargetDate  *time.Time       `json:"targetDate"`
}

func (p *AddGoalParams) Validate() error {
	if p.Title == "" {
		return fitness.NewValidationError("title", "must not be empty")
	}
	return nil
}

const (
	RecordTypeMaxWeight   = "max_weight"
	RecordTypeMaxReps     = "max_reps"
	RecordTypeMaxDuration = "max_duration"
	RecordTypeMaxDistance = "max_distance"
)

// ValidRecordType reports whether recordType is one of the known metrics.
func ValidRecordType(recordType string) bool {
	switch recordType {
	case RecordTypeMaxWeight, RecordTypeMaxReps, RecordTypeMaxDuration, RecordTypeMaxDistance:
		return true
	}
	return false
}

// Record is a personal best for an exercise and metric type.
type Record struct {
	ID           int             `json:"id"`
	UserID       string          `json:"userId"`
	ExerciseID   *int            `json:"exerciseId"`
	RecordType   string          `json:"recordType"`
	Value        decimal.Decimal `json:"value"`
	Unit         *string         `json:"unit"`
	AchievedDate time.Time       `json:"achievedDate"`
	SessionID    *int            `json:"sessionId"`
	Notes        *string         `json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type AddRecordParams struct {
	ExerciseID   *int            `json:"exerciseId"`
	RecordType   string          `json:"recordType"`
	Value        decimal.Decimal `json:"value"`
	Unit         *string         `json:"unit"`
	AchievedDate time.Time       `json:"achievedDate"`
	SessionID    *int            `json:"sessionId"`
	Notes        *string         `json:"notes"`
}

func (p *AddRecordParams) Validate() error {
	if !ValidRecordType(p.RecordType) {
		return fitness.NewValidationError("recordType", "unknown record type")
	}
	if p.AchievedDate.IsZero() {
		return fitness.NewValidationError("achievedDate", "must be set")
	}
	return nil
}

// Achievement is an earned badge with optional points.
type Achievement struct {
	ID              int       `json:"id"`
	UserID          string    `json:"userId"`
	AchievementType string    `json:"achievementType"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	IconName        *string   `json:"iconName"`
	EarnedDate      time.Time `json:"earnedDate"`
	Points          int       `json:"points"`
}

type AddAchievementParams struct {
	AchievementType string  `json:"achievementType"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	IconName        *string `json:"iconName"`
	Points          *int    `json:"points"`
}

func (p *AddAchievementParams) Validate() error {
	if p.AchievementType == "" {
		return fitness.NewValidationError("achievementType", "must not be empty")
	}
	if p.Title == "" {
		return fitness.NewValidationError("title", "must not be empty")
	}
	if p.Points != nil && *p.Points < 0 {
		return fitness.NewValidationError("points", "must not be negative")
	}
	return nil
}
