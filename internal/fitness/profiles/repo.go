package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// GetOrCreate returns the profile for userID, inserting a blank one first
// if none exists. The insert is conflict tolerant (unique user_id +
// ON CONFLICT DO NOTHING), so two concurrent first-time callers can never
// produce two rows.
func (r *Repo) GetOrCreate(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.getorcreate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if userID == "" {
		return nil, fitness.NewValidationError("userId", "must not be empty")
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO user_profile (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING;`,
		userID,
	); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return r.get(ctx, userID)
}

func (r *Repo) get(ctx context.Context, userID string) (*Profile, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, display_name, bio, created_at, updated_at
			FROM user_profile
			WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	profiles, err := rows2profiles(rows)
	if err != nil {
		return nil, err
	}

	if len(profiles) != 1 {
		return nil, ErrProfileNotFound
	}

	return &profiles[0], nil
}

func (r *Repo) Update(ctx context.Context, userID string, params UpdateParams) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if userID == "" {
		return nil, fitness.NewValidationError("userId", "must not be empty")
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE user_profile
			SET
				display_name = COALESCE($2, display_name),
				bio = COALESCE($3, bio),
				updated_at = now()
			WHERE user_id = $1;`,
		userID, params.DisplayName, params.Bio,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	return r.get(ctx, userID)
}

// List returns all profiles, newest first. Feeds the users/profiles
// read endpoints.
func (r *Repo) List(ctx context.Context) (_ []Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.list")
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
				id, user_id, display_name, bio, created_at, updated_at
			FROM user_profile
			ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2profiles(rows)
}

func rows2profiles(rows pgx.Rows) ([]Profile, error) {
	var profiles []Profile
	for rows.Next() {
		var id int
		var userID string
		var displayName *string
		var bio *string
		var createdAt time.Time
		var updatedAt time.Time
		if err := rows.Scan(&id, &userID, &displayName, &bio, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		profiles = append(profiles, Profile{
			ID:          id,
			UserID:      userID,
			DisplayName: displayName,
			Bio:         bio,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		})
	}

	if profiles == nil {
		profiles = make([]Profile, 0)
	}

	return profiles, nil
}
