package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/achievement"
	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/mastery"
)

// ProgressRepo stores per-(student, topic) mastery aggregates.
type ProgressRepo struct {
	db *DB
}

// ProgressRepo returns the topic-progress repository.
func (db *DB) ProgressRepo() *ProgressRepo {
	return &ProgressRepo{db: db}
}

type progressRow struct {
	StudentID       string  `db:"student_id"`
	TopicID         string  `db:"topic_id"`
	Mastery         float64 `db:"mastery"`
	Attempts        int     `db:"attempts"`
	Correct         int     `db:"correct"`
	LastPracticedAt int64   `db:"last_practiced_at"`
}

func (row progressRow) toDomain() *mastery.TopicProgress {
	return &mastery.TopicProgress{
		StudentID:       row.StudentID,
		TopicID:         row.TopicID,
		Mastery:         row.Mastery,
		Attempts:        row.Attempts,
		Correct:         row.Correct,
		LastPracticedAt: time.UnixMilli(row.LastPracticedAt).UTC(),
	}
}

// Get returns the progress record for a (student, topic) pair.
func (r *ProgressRepo) Get(ctx context.Context, studentID, topicID string) (*mastery.TopicProgress, error) {
	return getProgress(ctx, r.db.conn, studentID, topicID)
}

// GetTx is Get inside a transaction.
func (r *ProgressRepo) GetTx(ctx context.Context, tx *sqlx.Tx, studentID, topicID string) (*mastery.TopicProgress, error) {
	return getProgress(ctx, tx, studentID, topicID)
}

func getProgress(ctx context.Context, q sqlx.QueryerContext, studentID, topicID string) (*mastery.TopicProgress, error) {
	var row progressRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT student_id, topic_id, mastery, attempts, correct, last_practiced_at
		FROM topic_progress WHERE student_id = ? AND topic_id = ?`,
		studentID, topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("topic progress", studentID+"/"+topicID)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Upsert writes the progress record inside tx.
func (r *ProgressRepo) Upsert(ctx context.Context, tx *sqlx.Tx, tp *mastery.TopicProgress) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO topic_progress (student_id, topic_id, mastery, attempts, correct, last_practiced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, topic_id) DO UPDATE SET
			mastery = excluded.mastery,
			attempts = excluded.attempts,
			correct = excluded.correct,
			last_practiced_at = excluded.last_practiced_at`,
		tp.StudentID, tp.TopicID, tp.Mastery, tp.Attempts, tp.Correct,
		tp.LastPracticedAt.UnixMilli())
	return err
}

// StatsTx aggregates the student's statistics for achievement
// evaluation, inside the coordinator's transaction so the evaluator
// sees the already-applied update.
func (r *ProgressRepo) StatsTx(ctx context.Context, tx *sqlx.Tx, studentID string) (achievement.Stats, error) {
	stats := achievement.Stats{
		StudentID:    studentID,
		TopicMastery: make(map[string]float64),
	}

	err := tx.GetContext(ctx, &stats.TotalAttempts,
		`SELECT COUNT(1) FROM attempts WHERE student_id = ?`, studentID)
	if err != nil {
		return stats, err
	}

	err = tx.GetContext(ctx, &stats.ProblemsSolved,
		`SELECT COUNT(DISTINCT problem_id) FROM attempts WHERE student_id = ? AND correct = 1`,
		studentID)
	if err != nil {
		return stats, err
	}

	err = tx.GetContext(ctx, &stats.PointsEarned, `
		SELECT COALESCE(SUM(points), 0) FROM (
			SELECT MAX(points) AS points FROM attempts
			WHERE student_id = ? AND correct = 1 GROUP BY problem_id
		)`, studentID)
	if err != nil {
		return stats, err
	}

	err = tx.GetContext(ctx, &stats.CompetitionsJoined, `
		SELECT COUNT(DISTINCT competition_id) FROM attempts
		WHERE student_id = ? AND competition_id != ''`, studentID)
	if err != nil {
		return stats, err
	}

	rows, err := tx.QueryxContext(ctx,
		`SELECT topic_id, mastery FROM topic_progress WHERE student_id = ?`, studentID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var topicID string
		var m float64
		if err := rows.Scan(&topicID, &m); err != nil {
			return stats, err
		}
		stats.TopicMastery[topicID] = m
	}
	return stats, rows.Err()
}
