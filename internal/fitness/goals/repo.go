package goals

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrGoalNotFound = errors.New("goal not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddGoal(ctx context.Context, userID string, params AddGoalParams) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.add")
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

	goal := Goal{
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		TargetValue: params.TargetValue,
		TargetUnit:  params.TargetUnit,
		TargetDate:  params.TargetDate,
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	var currentValueStr string
	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO user_goal
				(user_id, title, description, category, target_value, target_unit, target_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, current_value::text, created_at;`,
		goal.UserID, goal.Title, goal.Description, goal.Category,
		fitness.DecimalArg(goal.TargetValue), goal.TargetUnit, goal.TargetDate,
	).Scan(&goal.ID, &currentValueStr, &goal.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	currentValue, err := decimal.NewFromString(currentValueStr)
	if err != nil {
		return nil, err
	}
	goal.CurrentValue = currentValue

	return &goal, nil
}

func (r *Repo) ListGoals(ctx context.Context, userID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.list")
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
				id, user_id, title, description, category, target_value::text,
				target_unit, target_date, current_value::text, is_achieved,
				created_at, achieved_at
			FROM user_goal
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

	return rows2goals(rows)
}

// UpdateProgress sets the goal's current value.
func (r *Repo) UpdateProgress(ctx context.Context, userID string, id int, currentValue decimal.Decimal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.updateprogress")
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
		`UPDATE user_goal SET current_value = $3 WHERE user_id = $1 AND id = $2;`,
		userID, id, currentValue.String(),
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// MarkAchieved flags the goal done and stamps achieved_at.
func (r *Repo) MarkAchieved(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.markachieved")
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
			UPDATE user_goal
			SET is_achieved = TRUE, achieved_at = now()
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	return nil
}

func (r *Repo) AddRecord(ctx context.Context, userID string, params AddRecordParams) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.addrecord")
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

	record := Record{
		UserID:       userID,
		ExerciseID:   params.ExerciseID,
		RecordType:   params.RecordType,
		Value:        params.Value,
		Unit:         params.Unit,
		AchievedDate: params.AchievedDate,
		SessionID:    params.SessionID,
		Notes:        params.Notes,
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO personal_record
				(user_id, exercise_id, record_type, value, unit, achieved_date, session_id, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at;`,
		record.UserID, record.ExerciseID, record.RecordType, record.Value.String(),
		record.Unit, record.AchievedDate, record.SessionID, record.Notes,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &record, nil
}

// ListRecords returns the user's personal records, most recently
// achieved first.
func (r *Repo) ListRecords(ctx context.Context, userID string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.listrecords")
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
				id, user_id, exercise_id, record_type, value::text, unit,
				achieved_date, session_id, notes, created_at
			FROM personal_record
			WHERE user_id = $1
			ORDER BY achieved_date DESC;`,
		userID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2records(rows)
}

func (r *Repo) AddAchievement(ctx context.Context, userID string, params AddAchievementParams) (_ *Achievement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.addachievement")
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

	achievement := Achievement{
		UserID:          userID,
		AchievementType: params.AchievementType,
		Title:           params.Title,
		Description:     params.Description,
		IconName:        params.IconName,
	}
	if params.Points != nil {
		achievement.Points = *params.Points
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO user_achievement
				(user_id, achievement_type, title, description, icon_name, points)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, earned_date;`,
		achievement.UserID, achievement.AchievementType, achievement.Title,
		achievement.Description, achievement.IconName, achievement.Points,
	).Scan(&achievement.ID, &achievement.EarnedDate); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &achievement, nil
}

func (r *Repo) ListAchievements(ctx context.Context, userID string) (_ []Achievement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.listachievements")
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
				id, user_id, achievement_type, title, description,
				icon_name, earned_date, points
			FROM user_achievement
			WHERE user_id = $1
			ORDER BY earned_date DESC;`,
		userID,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return rows2achievements(rows)
}

func rows2goals(rows pgx.Rows) ([]Goal, error) {
	var goals []Goal
	for rows.Next() {
		var id int
		var userID, title string
		var description, category *string
		var targetValueStr *string
		var targetUnit *string
		var targetDate *time.Time
		var currentValueStr string
		var isAchieved bool
		var createdAt time.Time
		var achievedAt *time.Time
		if err := rows.Scan(
			&id, &userID, &title, &description, &category, &targetValueStr,
			&targetUnit, &targetDate, &currentValueStr, &isAchieved,
			&createdAt, &achievedAt,
		); err != nil {
			return nil, err
		}

		targetValue, err := fitness.ParseDecimal(targetValueStr)
		if err != nil {
			return nil, err
		}
		currentValue, err := decimal.NewFromString(currentValueStr)
		if err != nil {
			return nil, err
		}

		goals = append(goals, Goal{
			ID:           id,
			UserID:       userID,
			Title:        title,
			Description:  description,
			Category:     category,
			TargetValue:  targetValue,
			TargetUnit:   targetUnit,
			TargetDate:   targetDate,
			CurrentValue: currentValue,
			IsAchieved:   isAchieved,
			CreatedAt:    createdAt,
			AchievedAt:   achievedAt,
		})
	}

	if goals == nil {
		goals = make([]Goal, 0)
	}

	return goals, nil
}

func rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var id int
		var userID string
		var exerciseID *int
		var recordType, valueStr string
		var unit *string
		var achievedDate time.Time
		var sessionID *int
		var notes *string
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &exerciseID, &recordType, &valueStr, &unit,
			&achievedDate, &sessionID, &notes, &createdAt,
		); err != nil {
			return nil, err
		}

		value, err := decimal.NewFromString(valueStr)
		if err != nil {
			return nil, err
		}

		records = append(records, Record{
			ID:           id,
			UserID:       userID,
			ExerciseID:   exerciseID,
			RecordType:   recordType,
			Value:        value,
			Unit:         unit,
			AchievedDate: achievedDate,
			SessionID:    sessionID,
			Notes:        notes,
			CreatedAt:    createdAt,
		})
	}

	if records == nil {
		records = make([]Record, 0)
	}

	return records, nil
}

func rows2achievements(rows pgx.Rows) ([]Achievement, error) {
	var achievements []Achievement
	for rows.Next() {
		var id int
		var userID, achievementType, title string
		var description, iconName *string
		var earnedDate time.Time
		var points int
		if err := rows.Scan(
			&id, &userID, &achievementType, &title, &description,
			&iconName, &earnedDate, &points,
		); err != nil {
			return nil, err
		}

		achievements = append(achievements, Achievement{
			ID:              id,
			UserID:          userID,
			AchievementType: achievementType,
			Title:           title,
			Description:     description,
			IconName:        iconName,
			EarnedDate:      earnedDate,
			Points:          points,
		})
	}

	if achievements == nil {
		achievements = make([]Achievement, 0)
	}

	return achievements, nil
}
