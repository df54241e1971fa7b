package programs

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

var ErrProgramNotFound = errors.New("program not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, userID string, params AddParams) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add")
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

	program := params.program(userID)

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO workout_program
				(user_id, name, description, duration_weeks, difficulty_level, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at;`,
		program.UserID, program.Name, program.Description,
		program.DurationWeeks, program.DifficultyLevel, program.IsActive,
	).Scan(&program.ID, &program.CreatedAt, &program.UpdatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &program, nil
}

// List returns the user's programs, newest created first.
func (r *Repo) List(ctx context.Context, userID string) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.list")
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
				id, user_id, name, description, duration_weeks,
				difficulty_level, is_active, created_at, updated_at
			FROM workout_program
			WHERE user_id = $1
			ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2programs(rows)
}

func (r *Repo) Get(ctx context.Context, userID string, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get")
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
				id, user_id, name, description, duration_weeks,
				difficulty_level, is_active, created_at, updated_at
			FROM workout_program
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	found, err := rows2programs(rows)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, ErrProgramNotFound
	}

	return &found[0], nil
}

// AddExercise appends an ordered step to one of the user's programs.
// Ownership is checked first so users cannot attach steps to programs
// they do not own.
func (r *Repo) AddExercise(ctx context.Context, userID string, programID int, params AddExerciseParams) (_ *ProgramExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if _, err := r.Get(ctx, userID, programID); err != nil {
		return nil, err
	}

	pe := ProgramExercise{
		ProgramID:      programID,
		ExerciseID:     params.ExerciseID,
		DayNumber:      params.DayNumber,
		OrderIndex:     params.OrderIndex,
		TargetSets:     params.TargetSets,
		TargetRepsMin:  params.TargetRepsMin,
		TargetRepsMax:  params.TargetRepsMax,
		TargetWeight:   params.TargetWeight,
		TargetDuration: params.TargetDuration,
		RestDuration:   60,
		Notes:          params.Notes,
	}
	if params.RestDuration != nil {
		pe.RestDuration = *params.RestDuration
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO program_exercise
				(program_id, exercise_id, day_number, order_index, target_sets,
				target_reps_min, target_reps_max, target_weight, target_duration,
				rest_duration, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at;`,
		pe.ProgramID, pe.ExerciseID, pe.DayNumber, pe.OrderIndex, pe.TargetSets,
		pe.TargetRepsMin, pe.TargetRepsMax, fitness.DecimalArg(pe.TargetWeight),
		pe.TargetDuration, pe.RestDuration, pe.Notes,
	).Scan(&pe.ID, &pe.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &pe, nil
}

// ListExercises returns a program's steps in day/order sequence.
func (r *Repo) ListExercises(ctx context.Context, userID string, programID int) (_ []ProgramExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.listexercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}

	if _, err := r.Get(ctx, userID, programID); err != nil {
		return nil, err
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, program_id, exercise_id, day_number, order_index,
				target_sets, target_reps_min, target_reps_max,
				target_weight::text, target_duration, rest_duration, notes, created_at
			FROM program_exercise
			WHERE program_id = $1
			ORDER BY day_number, order_index;`,
		programID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2programExercises(rows)
}

// Delete removes the user's program; the cascade takes its steps with it.
// Deleting an id that is gone already is a no-op.
func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_program WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		log.Tracef("delete program %d for [%s]: nothing to delete", id, userID)
	}

	return nil
}

// Deactivate keeps the program and its history around but takes it out
// of the active rotation.
func (r *Repo) Deactivate(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.deactivate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE workout_program
			SET is_active = FALSE, updated_at = now()
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}

	return nil
}

func rows2programs(rows pgx.Rows) ([]Program, error) {
	var programs []Program
	for rows.Next() {
		var id int
		var userID, name string
		var description *string
		var durationWeeks, difficultyLevel int
		var isActive bool
		var createdAt, updatedAt time.Time
		if err := rows.Scan(
			&id, &userID, &name, &description, &durationWeeks,
			&difficultyLevel, &isActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		programs = append(programs, Program{
			ID:              id,
			UserID:          userID,
			Name:            name,
			Description:     description,
			DurationWeeks:   durationWeeks,
			DifficultyLevel: difficultyLevel,
			IsActive:        isActive,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		})
	}

	if programs == nil {
		programs = make([]Program, 0)
	}

	return programs, nil
}

func rows2programExercises(rows pgx.Rows) ([]ProgramExercise, error) {
	var steps []ProgramExercise
	for rows.Next() {
		var id, programID, exerciseID, dayNumber, orderIndex int
		var targetSets, targetRepsMin, targetRepsMax *int
		var targetWeightStr *string
		var targetDuration *int
		var restDuration int
		var notes *string
		var createdAt time.Time
		if err := rows.Scan(
			&id, &programID, &exerciseID, &dayNumber, &orderIndex,
			&targetSets, &targetRepsMin, &targetRepsMax,
			&targetWeightStr, &targetDuration, &restDuration, &notes, &createdAt,
		); err != nil {
			return nil, err
		}

		targetWeight, err := fitness.ParseDecimal(targetWeightStr)
		if err != nil {
			return nil, err
		}

		steps = append(steps, ProgramExercise{
			ID:             id,
			ProgramID:      programID,
			ExerciseID:     exerciseID,
			DayNumber:      dayNumber,
			OrderIndex:     orderIndex,
			TargetSets:     targetSets,
			TargetRepsMin:  targetRepsMin,
			TargetRepsMax:  targetRepsMax,
			TargetWeight:   targetWeight,
			TargetDuration: targetDuration,
			RestDuration:   restDuration,
			Notes:          notes,
			CreatedAt:      createdAt,
		})
	}

	if steps == nil {
		steps = make([]ProgramExercise, 0)
	}

	return steps, nil
}
