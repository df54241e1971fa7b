package sessions

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

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionExerciseNotFound = errors.New("session exercise not found")
)

const defaultRecentLimit = 10

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Start(ctx context.Context, userID string, params StartParams) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if userID == "" {
		return nil, fitness.NewValidationError("userId", "must not be empty")
	}

	session := Session{
		UserID:      userID,
		ProgramID:   params.ProgramID,
		SessionName: params.SessionName,
		Notes:       params.Notes,
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO workout_session (user_id, program_id, session_name, started_at, notes)
			VALUES ($1, $2, $3, now(), $4)
			RETURNING id, started_at, created_at;`,
		session.UserID, session.ProgramID, session.SessionName, session.Notes,
	).Scan(&session.ID, &session.StartedAt, &session.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &session, nil
}

// Finish stamps completed_at and stores the optional rating and notes.
func (r *Repo) Finish(ctx context.Context, userID string, id int, params FinishParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.finish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return fitness.ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return err
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE workout_session
			SET
				completed_at = now(),
				rating = COALESCE($3, rating),
				notes = COALESCE($4, notes)
			WHERE user_id = $1 AND id = $2;`,
		userID, id, params.Rating, params.Notes,
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repo) AddExercise(ctx context.Context, userID string, sessionID int, params AddExerciseParams) (_ *SessionExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.sessionOwnedBy(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	se := SessionExercise{
		SessionID:  sessionID,
		ExerciseID: params.ExerciseID,
		OrderIndex: params.OrderIndex,
		Notes:      params.Notes,
	}

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO session_exercise (session_id, exercise_id, order_index, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING id, completed_sets, created_at;`,
		se.SessionID, se.ExerciseID, se.OrderIndex, se.Notes,
	).Scan(&se.ID, &se.CompletedSets, &se.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &se, nil
}

// AddSet logs one set and bumps the parent exercise's completed sets
// counter, both in one transaction.
func (r *Repo) AddSet(ctx context.Context, userID string, sessionExerciseID int, params AddSetParams) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.addset")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	var ownedID int
	if err := r.db.QueryRow(
		ctx,
		`
			SELECT se.id
			FROM session_exercise se
			JOIN workout_session ws ON ws.id = se.session_id
			WHERE se.id = $1 AND ws.user_id = $2;`,
		sessionExerciseID, userID,
	).Scan(&ownedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionExerciseNotFound
		}
		return nil, fitness.MapStorageError(err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				log.Errorf("add set, rollback: %s", rollbackErr)
			}
		}
	}()

	set := Set{
		SessionExerciseID: sessionExerciseID,
		SetNumber:         params.SetNumber,
		Reps:              params.Reps,
		Weight:            params.Weight,
		Duration:          params.Duration,
		Distance:          params.Distance,
		RestDuration:      params.RestDuration,
	}

	if err = tx.QueryRow(
		ctx,
		`
			INSERT INTO exercise_set
				(session_exercise_id, set_number, reps, weight, duration, distance, rest_duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, completed_at;`,
		set.SessionExerciseID, set.SetNumber, set.Reps, fitness.DecimalArg(set.Weight),
		set.Duration, fitness.DecimalArg(set.Distance), set.RestDuration,
	).Scan(&set.ID, &set.CompletedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	if _, err = tx.Exec(
		ctx,
		`UPDATE session_exercise SET completed_sets = completed_sets + 1 WHERE id = $1;`,
		sessionExerciseID,
	); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &set, nil
}

// ListRecent returns the user's sessions by start time descending,
// capped at limit (default 10 when limit is not positive).
func (r *Repo) ListRecent(ctx context.Context, userID string, limit int) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.listrecent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, program_id, session_name, started_at,
				completed_at, notes, rating, created_at
			FROM workout_session
			WHERE user_id = $1
			ORDER BY started_at DESC
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

	return rows2sessions(rows)
}

// Delete removes the session; the cascade takes its exercises and their
// sets with it.
func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.delete")
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
		`DELETE FROM workout_session WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repo) sessionOwnedBy(ctx context.Context, userID string, sessionID int) error {
	var id int
	if err := r.db.QueryRow(
		ctx,
		`SELECT id FROM workout_session WHERE user_id = $1 AND id = $2;`,
		userID, sessionID,
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fitness.MapStorageError(err)
	}
	return nil
}

func rows2sessions(rows pgx.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var id int
		var userID string
		var programID *int
		var sessionName *string
		var startedAt time.Time
		var completedAt *time.Time
		var notes *string
		var rating *int
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &programID, &sessionName, &startedAt,
			&completedAt, &notes, &rating, &createdAt,
		); err != nil {
			return nil, err
		}

		sessions = append(sessions, Session{
			ID:          id,
			UserID:      userID,
			ProgramID:   programID,
			SessionName: sessionName,
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			Notes:       notes,
			Rating:      rating,
			CreatedAt:   createdAt,
		})
	}

	if sessions == nil {
		sessions = make([]Session, 0)
	}

	return sessions, nil
}
