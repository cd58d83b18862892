package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/achievement"
)

// AwardRepo stores earned achievements.
type AwardRepo struct {
	db *DB
}

// AwardRepo returns the earned-achievement repository.
func (db *DB) AwardRepo() *AwardRepo {
	return &AwardRepo{db: db}
}

type awardRow struct {
	StudentID     string `db:"student_id"`
	AchievementID string `db:"achievement_id"`
	EarnedAt      int64  `db:"earned_at"`
}

// EarnedSetTx returns the set of achievement IDs the student already
// holds, read inside tx so the evaluator and the insert see the same
// snapshot.
func (r *AwardRepo) EarnedSetTx(ctx context.Context, tx *sqlx.Tx, studentID string) (map[string]bool, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids,
		`SELECT achievement_id FROM student_achievements WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

// Insert records a newly earned achievement inside tx.
func (r *AwardRepo) Insert(ctx context.Context, tx *sqlx.Tx, sa *achievement.StudentAchievement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO student_achievements (student_id, achievement_id, earned_at)
		VALUES (?, ?, ?)`,
		sa.StudentID, sa.AchievementID, sa.EarnedAt.UnixMilli())
	return err
}

// ListByStudent returns the student's earned achievements in the order
// they were earned.
func (r *AwardRepo) ListByStudent(ctx context.Context, studentID string) ([]*achievement.StudentAchievement, error) {
	var rows []awardRow
	err := r.db.conn.SelectContext(ctx, &rows, `
		SELECT student_id, achievement_id, earned_at FROM student_achievements
		WHERE student_id = ? ORDER BY earned_at ASC, achievement_id ASC`, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]*achievement.StudentAchievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, &achievement.StudentAchievement{
			StudentID:     row.StudentID,
			AchievementID: row.AchievementID,
			EarnedAt:      time.UnixMilli(row.EarnedAt).UTC(),
		})
	}
	return out, nil
}
