package store

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/attempt"
)

// AttemptRepo stores attempt facts. The (student_id, idempotency_key)
// unique constraint is the de-duplication backstop.
type AttemptRepo struct {
	db *DB
}

// AttemptRepo returns the attempt repository.
func (db *DB) AttemptRepo() *AttemptRepo {
	return &AttemptRepo{db: db}
}

// SeenKey reports whether the idempotency key was already applied for
// the student.
func (r *AttemptRepo) SeenKey(ctx context.Context, studentID, key string) (bool, error) {
	var n int
	err := r.db.conn.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM attempts WHERE student_id = ? AND idempotency_key = ?`,
		studentID, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert writes an attempt inside tx.
func (r *AttemptRepo) Insert(ctx context.Context, tx *sqlx.Tx, a *attempt.Attempt) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO attempts
			(id, student_id, problem_id, topic_id, answer, correct, time_spent_ms,
			 hints_used, points, competition_id, idempotency_key, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, a.ProblemID, a.TopicID, a.Answer, a.Correct,
		a.TimeSpent.Milliseconds(), a.HintsUsed, a.Points, a.CompetitionID,
		a.IdempotencyKey, a.SubmittedAt.UnixMilli())
	return err
}

// IsDuplicateKeyError reports whether err is the unique-constraint
// violation for (student_id, idempotency_key).
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") &&
		strings.Contains(msg, "attempts.")
}

// PruneOlderThan deletes attempts submitted before cutoff. Returns the
// number of rows removed.
func (r *AttemptRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM attempts WHERE submitted_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
