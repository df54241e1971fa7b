package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the single authoritative table set of the fitness store.
// All child rows hang off their parent with ON DELETE CASCADE where the
// parent owns them, and user_profile.user_id carries the uniqueness
// constraint that makes get-or-create race free.
const schema = `
CREATE TABLE IF NOT EXISTS user_profile (
	id           SERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL UNIQUE,
	display_name TEXT,
	bio          TEXT,
	created_at   TIMESTAMP NOT NULL DEFAULT now(),
	updated_at   TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exercise (
	id               SERIAL PRIMARY KEY,
	name             TEXT NOT NULL,
	category         TEXT NOT NULL,
	muscle_groups    TEXT[],
	equipment        TEXT[],
	instructions     TEXT,
	difficulty_level INT NOT NULL DEFAULT 1,
	created_by       TEXT,
	is_public        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workout_program (
	id               SERIAL PRIMARY KEY,
	user_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	description      TEXT,
	duration_weeks   INT NOT NULL DEFAULT 4,
	difficulty_level INT NOT NULL DEFAULT 1,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMP NOT NULL DEFAULT now(),
	updated_at       TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS program_exercise (
	id              SERIAL PRIMARY KEY,
	program_id      INT NOT NULL REFERENCES workout_program(id) ON DELETE CASCADE,
	exercise_id     INT NOT NULL REFERENCES exercise(id),
	day_number      INT NOT NULL,
	order_index     INT NOT NULL,
	target_sets     INT,
	target_reps_min INT,
	target_reps_max INT,
	target_weight   NUMERIC(5,2),
	target_duration INT,
	rest_duration   INT NOT NULL DEFAULT 60,
	notes           TEXT,
	created_at      TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workout_session (
	id           SERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL,
	program_id   INT REFERENCES workout_program(id),
	session_name TEXT,
	started_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	notes        TEXT,
	rating       INT,
	created_at   TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_exercise (
	id             SERIAL PRIMARY KEY,
	session_id     INT NOT NULL REFERENCES workout_session(id) ON DELETE CASCADE,
	exercise_id    INT NOT NULL REFERENCES exercise(id),
	order_index    INT NOT NULL,
	completed_sets INT NOT NULL DEFAULT 0,
	notes          TEXT,
	created_at     TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exercise_set (
	id                  SERIAL PRIMARY KEY,
	session_exercise_id INT NOT NULL REFERENCES session_exercise(id) ON DELETE CASCADE,
	set_number          INT NOT NULL,
	reps                INT,
	weight              NUMERIC(5,2),
	duration            INT,
	distance            NUMERIC(6,2),
	rest_duration       INT,
	completed_at        TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS body_measurement (
	id                  SERIAL PRIMARY KEY,
	user_id             TEXT NOT NULL,
	measurement_date    DATE NOT NULL,
	weight              NUMERIC(5,2),
	body_fat_percentage NUMERIC(4,2),
	muscle_mass         NUMERIC(5,2),
	measurements        JSONB,
	notes               TEXT,
	created_at          TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS progress_photo (
	id          SERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	photo_url   TEXT NOT NULL,
	photo_date  DATE NOT NULL,
	category    TEXT,
	description TEXT,
	created_at  TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_goal (
	id            SERIAL PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT,
	category      TEXT,
	target_value  NUMERIC(8,2),
	target_unit   TEXT,
	target_date   DATE,
	current_value NUMERIC(8,2) NOT NULL DEFAULT 0,
	is_achieved   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMP NOT NULL DEFAULT now(),
	achieved_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS personal_record (
	id            SERIAL PRIMARY KEY,
	user_id       TEXT NOT NULL,
	exercise_id   INT REFERENCES exercise(id),
	record_type   TEXT NOT NULL,
	value         NUMERIC(8,2) NOT NULL,
	unit          TEXT,
	achieved_date DATE NOT NULL,
	-- no delete action: a session referenced by a record cannot be removed
	session_id    INT REFERENCES workout_session(id),
	notes         TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_achievement (
	id               SERIAL PRIMARY KEY,
	user_id          TEXT NOT NULL,
	achievement_type TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT,
	icon_name        TEXT,
	earned_date      TIMESTAMP NOT NULL DEFAULT now(),
	points           INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	price      NUMERIC(10,2),
	stock      INT NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workout_program_user ON workout_program(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_workout_session_user ON workout_session(user_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_program_exercise_program ON program_exercise(program_id, day_number, order_index);
CREATE INDEX IF NOT EXISTS idx_body_measurement_user ON body_measurement(user_id, measurement_date DESC);
CREATE INDEX IF NOT EXISTS idx_personal_record_user ON personal_record(user_id, achieved_date DESC);
CREATE INDEX IF NOT EXISTS idx_exercise_name ON exercise(name);
`

// Migrate ensures all tables exist. Called once at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
