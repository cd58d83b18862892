package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/streak"
)

// StreakRepo stores per-student streak state.
type StreakRepo struct {
	db *DB
}

// StreakRepo returns the streak repository.
func (db *DB) StreakRepo() *StreakRepo {
	return &StreakRepo{db: db}
}

type streakRow struct {
	StudentID    string `db:"student_id"`
	Current      int    `db:"current"`
	Longest      int    `db:"longest"`
	LastCredited int64  `db:"last_credited"`
	GraceTokens  int    `db:"grace_tokens"`
}

func (row streakRow) toDomain() *streak.State {
	st := &streak.State{
		StudentID:   row.StudentID,
		Current:     row.Current,
		Longest:     row.Longest,
		GraceTokens: row.GraceTokens,
	}
	if row.LastCredited != 0 {
		st.LastCredited = time.UnixMilli(row.LastCredited).UTC()
	}
	return st
}

// Get returns the student's streak state. A student with no row yet
// gets a zero state rather than an error; a streak of zero is not an
// exceptional condition.
func (r *StreakRepo) Get(ctx context.Context, studentID string) (*streak.State, error) {
	return getStreak(ctx, r.db.conn, studentID)
}

// GetTx is Get inside a transaction.
func (r *StreakRepo) GetTx(ctx context.Context, tx *sqlx.Tx, studentID string) (*streak.State, error) {
	return getStreak(ctx, tx, studentID)
}

func getStreak(ctx context.Context, q sqlx.QueryerContext, studentID string) (*streak.State, error) {
	var row streakRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT student_id, current, longest, last_credited, grace_tokens
		FROM streaks WHERE student_id = ?`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return &streak.State{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Upsert writes the streak state inside tx.
func (r *StreakRepo) Upsert(ctx context.Context, tx *sqlx.Tx, st *streak.State) error {
	var credited int64
	if !st.LastCredited.IsZero() {
		credited = st.LastCredited.UnixMilli()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO streaks (student_id, current, longest, last_credited, grace_tokens)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id) DO UPDATE SET
			current = excluded.current,
			longest = excluded.longest,
			last_credited = excluded.last_credited,
			grace_tokens = excluded.grace_tokens`,
		st.StudentID, st.Current, st.Longest, credited, st.GraceTokens)
	return err
}
