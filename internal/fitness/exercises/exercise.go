package exercises

import (
	"time"

	"github.com/2beens/fittracker/internal/fitness"
)

const (
	CategoryStrength    = "strength"
	CategoryCardio      = "cardio"
	CategoryFlexibility = "flexibility"
	CategorySports      = "sports"
)

// Exercise is a catalog entry. Rows with created_by set are a user's
// custom exercises, everything else belongs to the shared public library.
type Exercise struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	MuscleGroups    []string  `json:"muscleGroups"`
	Equipment       []string  `json:"equipment"`
	Instructions    *string   `json:"instructions"`
	DifficultyLevel int       `json:"difficultyLevel"`
	CreatedBy       *string   `json:"createdBy"`
	IsPublic        bool      `json:"isPublic"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SearchParams are the catalog filters. All set filters are ANDed;
// with CreatedBy empty the search is restricted to the public library.
type SearchParams struct {
	Search    string
	Category  string
	CreatedBy string
}

func ValidCategory(category string) bool {
	switch category {
	case CategoryStrength, CategoryCardio, CategoryFlexibility, CategorySports:
		return true
	}
	return false
}

func (e *Exercise) Validate() error {
	if e.Name == "" {
		return fitness.NewValidationError("name", "must not be empty")
	}
	if !ValidCategory(e.Category) {
		return fitness.NewValidationError("category", "must be one of: strength, cardio, flexibility, sports")
	}
	if e.DifficultyLevel < 0 || e.DifficultyLevel > 5 {
		return fitness.NewValidationError("difficultyLevel", "must be between 1 and 5")
	}
	if e.DifficultyLevel == 0 {
		e.DifficultyLevel = 1
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

// defaultCatalog is the starter set inserted on first startup against an
// empty catalog.
var defaultCatalog = []Exercise{
	{
		Name:            "Push-ups",
		Category:        CategoryStrength,
		MuscleGroups:    []string{"chest", "shoulders", "triceps"},
		Equipment:       []string{"bodyweight"},
		Instructions:    strPtr("Start in plank position, lower body to ground, push back up."),
		DifficultyLevel: 2,
		IsPublic:        true,
	},
	{
		Name:            "Squats",
		Category:        CategoryStrength,
		MuscleGroups:    []string{"quadriceps", "glutes", "hamstrings"},
		Equipment:       []string{"bodyweight"},
		Instructions:    strPtr("Stand with feet shoulder-width apart, lower hips back and down, return to standing."),
		DifficultyLevel: 2,
		IsPublic:        true,
	},
	{
		Name:            "Running",
		Category:        CategoryCardio,
		MuscleGroups:    []string{"legs", "cardiovascular"},
		Equipment:       []string{"none"},
		Instructions:    strPtr("Run at a steady pace for the specified duration."),
		DifficultyLevel: 2,
		IsPublic:        true,
	},
	{
		Name:            "Bench Press",
		Category:        CategoryStrength,
		MuscleGroups:    []string{"chest", "shoulders", "triceps"},
		Equipment:       []string{"barbell", "bench"},
		Instructions:    strPtr("Lie on bench, lower bar to chest, press up to arms extended."),
		DifficultyLevel: 3,
		IsPublic:        true,
	},
}
