package exercises

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if err := exercise.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO exercise
				(name, category, muscle_groups, equipment, instructions, difficulty_level, created_by, is_public)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at;`,
		exercise.Name, exercise.Category, exercise.MuscleGroups, exercise.Equipment,
		exercise.Instructions, exercise.DifficultyLevel, exercise.CreatedBy, exercise.IsPublic,
	).Scan(&exercise.ID, &exercise.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &exercise, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
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
			SELECT
				id, name, category, muscle_groups, equipment,
				instructions, difficulty_level, created_by, is_public, created_at
			FROM exercise
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	found, err := rows2exercises(rows)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &found[0], nil
}

// Search runs the catalog query. Name matching is a case-insensitive
// substring match, category an exact match; without CreatedBy only the
// public library is searched. Results come back alphabetically by name.
func (r *Repo) Search(ctx context.Context, params SearchParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.search")
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
			SELECT
				id, name, category, muscle_groups, equipment,
				instructions, difficulty_level, created_by, is_public, created_at
			FROM exercise
			WHERE
				($1::text = '' OR name ILIKE '%' || $1 || '%')
				AND ($2::text = '' OR category = $2)
				AND (
					($3::text = '' AND is_public = TRUE)
					OR ($3::text <> '' AND created_by = $3)
				)
			ORDER BY name;`,
		params.Search, params.Category, params.CreatedBy,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2exercises(rows)
}

func (r *Repo) Count(ctx context.Context) (count int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return 0, fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM exercise;`).
		Scan(&count); err != nil {
		return 0, fitness.MapStorageError(err)
	}

	return count, nil
}

// SeedDefaults inserts the starter catalog, but only when the exercise
// table is completely empty. Safe to run on every startup.
func (r *Repo) SeedDefaults(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.seed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return fitness.ErrNotConfigured
	}

	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Tracef("exercise catalog not empty [%d rows], skipping seed", count)
		return nil
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	for _, e := range defaultCatalog {
		if _, err := r.db.Exec(
			ctx,
			`
				INSERT INTO exercise
					(name, category, muscle_groups, equipment, instructions, difficulty_level, is_public)
				VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			e.Name, e.Category, e.MuscleGroups, e.Equipment,
			e.Instructions, e.DifficultyLevel, e.IsPublic,
		); err != nil {
			return fitness.MapStorageError(err)
		}
	}

	log.Debugf("exercise catalog seeded with %d defaults", len(defaultCatalog))
	return nil
}

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var found []Exercise
	for rows.Next() {
		var id int
		var name, category string
		var muscleGroups, equipment []string
		var instructions *string
		var difficultyLevel int
		var createdBy *string
		var isPublic bool
		var createdAt time.Time
		if err := rows.Scan(
			&id, &name, &category, &muscleGroups, &equipment,
			&instructions, &difficultyLevel, &createdBy, &isPublic, &createdAt,
		); err != nil {
			return nil, err
		}

		found = append(found, Exercise{
			ID:              id,
			Name:            name,
			Category:        category,
			MuscleGroups:    muscleGroups,
			Equipment:       equipment,
			Instructions:    instructions,
			DifficultyLevel: difficultyLevel,
			CreatedBy:       createdBy,
			IsPublic:        isPublic,
			CreatedAt:       createdAt,
		})
	}

	if found == nil {
		found = make([]Exercise, 0)
	}

	return found, nil
}
