package store

import "github.com/jmoiron/sqlx"

// Timestamps are stored as Unix milliseconds throughout; repos convert
// at the boundary.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id          TEXT PRIMARY KEY,
		grade       INTEGER NOT NULL,
		enrolled_at INTEGER NOT NULL,
		tier        TEXT NOT NULL DEFAULT 'free',
		active      INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS topics (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS problems (
		id             TEXT PRIMARY KEY,
		topic_id       TEXT NOT NULL REFERENCES topics(id),
		subtopic       TEXT NOT NULL DEFAULT '',
		difficulty     INTEGER NOT NULL,
		answer_type    TEXT NOT NULL,
		answers        TEXT NOT NULL,
		choices        TEXT NOT NULL DEFAULT '[]',
		points         INTEGER NOT NULL DEFAULT 0,
		competition_id TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS achievements (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active      INTEGER NOT NULL DEFAULT 1,
		position    INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS achievement_requirements (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		achievement_id TEXT NOT NULL REFERENCES achievements(id),
		kind           TEXT NOT NULL,
		target         REAL NOT NULL,
		topic_id       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS attempts (
		id              TEXT PRIMARY KEY,
		student_id      TEXT NOT NULL,
		problem_id      TEXT NOT NULL,
		topic_id        TEXT NOT NULL,
		answer          TEXT NOT NULL,
		correct         INTEGER NOT NULL,
		time_spent_ms   INTEGER NOT NULL,
		hints_used      INTEGER NOT NULL DEFAULT 0,
		points          INTEGER NOT NULL DEFAULT 0,
		competition_id  TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT NOT NULL,
		submitted_at    INTEGER NOT NULL,
		UNIQUE (student_id, idempotency_key)
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_student_problem
		ON attempts (student_id, problem_id)`,

	`CREATE TABLE IF NOT EXISTS topic_progress (
		student_id        TEXT NOT NULL,
		topic_id          TEXT NOT NULL,
		mastery           REAL NOT NULL,
		attempts          INTEGER NOT NULL,
		correct           INTEGER NOT NULL,
		last_practiced_at INTEGER NOT NULL,
		PRIMARY KEY (student_id, topic_id)
	)`,

	`CREATE TABLE IF NOT EXISTS review_items (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id  TEXT NOT NULL,
		topic_id    TEXT NOT NULL,
		due_at      INTEGER NOT NULL,
		interval_ms INTEGER NOT NULL,
		lapses      INTEGER NOT NULL DEFAULT 0,
		state       TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		reviewed_at INTEGER NOT NULL DEFAULT 0
	)`,
	// The one-active-item-per-topic invariant, enforced at the storage
	// boundary as well as by the scheduler.
	`CREATE UNIQUE INDEX IF NOT EXISTS review_items_active
		ON review_items (student_id, topic_id) WHERE state = 'scheduled'`,
	`CREATE INDEX IF NOT EXISTS review_items_due
		ON review_items (student_id, state, due_at)`,

	`CREATE TABLE IF NOT EXISTS streaks (
		student_id    TEXT PRIMARY KEY,
		current       INTEGER NOT NULL,
		longest       INTEGER NOT NULL,
		last_credited INTEGER NOT NULL,
		grace_tokens  INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS student_achievements (
		student_id     TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		earned_at      INTEGER NOT NULL,
		PRIMARY KEY (student_id, achievement_id)
	)`,
}

func migrate(conn *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
