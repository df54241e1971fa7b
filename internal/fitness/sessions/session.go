package sessions

import (
	"time"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/shopspring/decimal"
)

// Session is one real-world workout, optionally tied to a program.
type Session struct {
	ID          int        `json:"id"`
	UserID      string     `json:"userId"`
	ProgramID   *int       `json:"programId"`
	SessionName *string    `json:"sessionName"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Notes       *string    `json:"notes"`
	Rating      *int       `json:"rating"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// SessionExercise is one exercise performed within a session. The
// completed sets counter goes up as sets get logged against it.
type SessionExercise struct {
	ID            int       `json:"id"`
	SessionID     int       `json:"sessionId"`
	ExerciseID    int       `json:"exerciseId"`
	OrderIndex    int       `json:"orderIndex"`
	CompletedSets int       `json:"completedSets"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Set is a single logged set within a session exercise.
type Set struct {
	ID                int              `json:"id"`
	SessionExerciseID int              `json:"sessionExerciseId"`
	SetNumber         int              `json:"setNumber"`
	Reps              *int             `json:"reps"`
	Weight            *decimal.Decimal `json:"weight"`
	Duration          *int             `json:"duration"`
	Distance          *decimal.Decimal `json:"distance"`
	RestDuration      *int             `json:"restDuration"`
	CompletedAt       time.Time        `json:"completedAt"`
}

type StartParams struct {
	ProgramID   *int    `json:"programId"`
	SessionName *string `json:"sessionName"`
	Notes       *string `json:"notes"`
}

type FinishParams struct {
	Rating *int    `json:"rating"`
	Notes  *string `json:"notes"`
}

func (p *FinishParams) Validate() error {
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return fitness.NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

type AddExerciseParams struct {
	ExerciseID int     `json:"exerciseId"`
	OrderIndex int     `json:"orderIndex"`
	Notes      *string `json:"notes"`
}

func (p *AddExerciseParams) Validate() error {
	if p.ExerciseID <= 0 {
		return fitness.NewValidationError("exerciseId", "must be a positive id")
	}
	if p.OrderIndex < 0 {
		return fitness.NewValidationError("orderIndex", "must not be negative")
	}
	return nil
}

type AddSetParams struct {
	SetNumber    int              `json:"setNumber"`
	Reps         *int             `json:"reps"`
	Weight       *decimal.Decimal `json:"weight"`
	Duration     *int             `json:"duration"`
	Distance     *decimal.Decimal `json:"distance"`
	RestDuration *int             `json:"restDuration"`
}

func (p *AddSetParams) Validate() error {
	if p.SetNumber < 1 {
		return fitness.NewValidationError("setNumber", "must be at least 1")
	}
	if p.Reps != nil && *p.Reps < 0 {
		return fitness.NewValidationError("reps", "must not be negative")
	}
	return nil
}
