package programs

import (
	"time"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/shopspring/decimal"
)

// Program is a named multi-week workout plan owned by one user.
type Program struct {
	ID              int       `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	DurationWeeks   int       `json:"durationWeeks"`
	DifficultyLevel int       `json:"difficultyLevel"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProgramExercise is one ordered step within a program day.
type ProgramExercise struct {
	ID             int              `json:"id"`
	ProgramID      int              `json:"programId"`
	ExerciseID     int              `json:"exerciseId"`
	DayNumber      int              `json:"dayNumber"`
	OrderIndex     int              `json:"orderIndex"`
	TargetSets     *int             `json:"targetSets"`
	TargetRepsMin  *int             `json:"targetRepsMin"`
	TargetRepsMax  *int             `json:"targetRepsMax"`
	TargetWeight   *decimal.Decimal `json:"targetWeight"`
	TargetDuration *int             `json:"targetDuration"`
	RestDuration   int              `json:"restDuration"`
	Notes          *string          `json:"notes"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// AddParams carries the client-supplied fields for a new program.
// Omitted optionals fall back to the schema defaults.
type AddParams struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DurationWeeks   *int    `json:"durationWeeks"`
	DifficultyLevel *int    `json:"difficultyLevel"`
	IsActive        *bool   `json:"isActive"`
}

// program materializes the params into a row-ready Program, filling in
// the schema defaults for anything omitted.
func (p AddParams) program(userID string) Program {
	program := Program{
		UserID:          userID,
		Name:            p.Name,
		Description:     p.Description,
		DurationWeeks:   4,
		DifficultyLevel: 1,
		IsActive:        true,
	}
	if p.DurationWeeks != nil {
		program.DurationWeeks = *p.DurationWeeks
	}
	if p.DifficultyLevel != nil {
		program.DifficultyLevel = *p.DifficultyLevel
	}
	if p.IsActive != nil {
		program.IsActive = *p.IsActive
	}
	return program
}

func (p *AddParams) Validate() error {
	if p.Name == "" {
		return fitness.NewValidationError("name", "must not be empty")
	}
	if p.DurationWeeks != nil && *p.DurationWeeks < 1 {
		return fitness.NewValidationError("durationWeeks", "must be at least 1")
	}
	if p.DifficultyLevel != nil && (*p.DifficultyLevel < 1 || *p.DifficultyLevel > 5) {
		return fitness.NewValidationError("difficultyLevel", "must be between 1 and 5")
	}
	return nil
}

type AddExerciseParams struct {
	ExerciseID     int              `json:"exerciseId"`
	DayNumber      int              `json:"dayNumber"`
	OrderIndex     int              `json:"orderIndex"`
	TargetSets     *int             `json:"targetSets"`
	TargetRepsMin  *int             `json:"targetRepsMin"`
	TargetRepsMax  *int             `json:"targetRepsMax"`
	TargetWeight   *decimal.Decimal `json:"targetWeight"`
	TargetDuration *int             `json:"targetDuration"`
	RestDuration   *int             `json:"restDuration"`
	Notes          *string          `json:"notes"`
}

func (p *AddExerciseParams) Validate() error {
	if p.ExerciseID <= 0 {
		return fitness.NewValidationError("exerciseId", "must be a positive id")
	}
	if p.DayNumber < 1 {
		return fitness.NewValidationError("dayNumber", "must be at least 1")
	}
	if p.OrderIndex < 0 {
		return fitness.NewValidationError("orderIndex", "must not be negative")
	}
	if p.RestDuration != nil && *p.RestDuration < 0 {
		return fitness.NewValidationError("restDuration", "must not be negative")
	}
	return nil
}
