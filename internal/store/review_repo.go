package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/spacedrep"
)

// ReviewRepo stores spaced-repetition review items. At most one item
// per (student, topic) is in the scheduled state; the partial unique
// index in the schema backs that up.
type ReviewRepo struct {
	db *DB
}

// ReviewRepo returns the review-item repository.
func (db *DB) ReviewRepo() *ReviewRepo {
	return &ReviewRepo{db: db}
}

type reviewRow struct {
	ID         int64  `db:"id"`
	StudentID  string `db:"student_id"`
	TopicID    string `db:"topic_id"`
	DueAt      int64  `db:"due_at"`
	IntervalMS int64  `db:"interval_ms"`
	Lapses     int    `db:"lapses"`
	State      string `db:"state"`
	CreatedAt  int64  `db:"created_at"`
	ReviewedAt int64  `db:"reviewed_at"`
}

func (row reviewRow) toDomain() *spacedrep.ReviewItem {
	item := &spacedrep.ReviewItem{
		ID:        row.ID,
		StudentID: row.StudentID,
		TopicID:   row.TopicID,
		DueAt:     time.UnixMilli(row.DueAt).UTC(),
		Interval:  time.Duration(row.IntervalMS) * time.Millisecond,
		Lapses:    row.Lapses,
		State:     spacedrep.ItemState(row.State),
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}
	if row.ReviewedAt != 0 {
		item.ReviewedAt = time.UnixMilli(row.ReviewedAt).UTC()
	}
	return item
}

// ActiveTx returns the scheduled item for a (student, topic) pair, or
// nil when the topic has no active item yet.
func (r *ReviewRepo) ActiveTx(ctx context.Context, tx *sqlx.Tx, studentID, topicID string) (*spacedrep.ReviewItem, error) {
	var row reviewRow
	err := tx.GetContext(ctx, &row, `
		SELECT id, student_id, topic_id, due_at, interval_ms, lapses, state, created_at, reviewed_at
		FROM review_items
		WHERE student_id = ? AND topic_id = ? AND state = ?`,
		studentID, topicID, spacedrep.StateScheduled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Apply persists a scheduling outcome inside tx: the retired item (if
// any) is transitioned in place, then the next scheduled item is
// inserted.
func (r *ReviewRepo) Apply(ctx context.Context, tx *sqlx.Tx, out spacedrep.Outcome) error {
	if out.Retired != nil {
		_, err := tx.ExecContext(ctx, `
			UPDATE review_items SET state = ?, reviewed_at = ?
			WHERE id = ? AND state = ?`,
			out.Retired.State, out.Retired.ReviewedAt.UnixMilli(),
			out.Retired.ID, spacedrep.StateScheduled)
		if err != nil {
			return err
		}
	}
	next := out.Next
	res, err := tx.ExecContext(ctx, `
		INSERT INTO review_items (student_id, topic_id, due_at, interval_ms, lapses, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		next.StudentID, next.TopicID, next.DueAt.UnixMilli(),
		next.Interval.Milliseconds(), next.Lapses, next.State,
		next.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		next.ID = id
	}
	return nil
}

// NextDue returns up to limit items due at or before now, ordered by
// due time and then by weakest mastery, so the most urgent and most
// fragile topics come first.
func (r *ReviewRepo) NextDue(ctx context.Context, studentID string, now time.Time, limit int) ([]*spacedrep.ReviewItem, error) {
	query, args, err := sq.
		Select("r.id", "r.student_id", "r.topic_id", "r.due_at", "r.interval_ms",
			"r.lapses", "r.state", "r.created_at", "r.reviewed_at").
		From("review_items r").
		LeftJoin("topic_progress tp ON tp.student_id = r.student_id AND tp.topic_id = r.topic_id").
		Where(sq.Eq{"r.student_id": studentID, "r.state": string(spacedrep.StateScheduled)}).
		Where(sq.LtOrEq{"r.due_at": now.UnixMilli()}).
		OrderBy("r.due_at ASC", "COALESCE(tp.mastery, 100) ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []reviewRow
	if err := r.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]*spacedrep.ReviewItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

// DueCount returns how many items are due for a student at now. Used
// by the digest job.
func (r *ReviewRepo) DueCount(ctx context.Context, studentID string, now time.Time) (int, error) {
	var n int
	err := r.db.conn.GetContext(ctx, &n, `
		SELECT COUNT(1) FROM review_items
		WHERE student_id = ? AND state = ? AND due_at <= ?`,
		studentID, spacedrep.StateScheduled, now.UnixMilli())
	return n, err
}

// StudentsWithDue lists distinct students that have at least one due
// item at now.
func (r *ReviewRepo) StudentsWithDue(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := r.db.conn.SelectContext(ctx, &ids, `
		SELECT DISTINCT student_id FROM review_items
		WHERE state = ? AND due_at <= ? ORDER BY student_id`,
		spacedrep.StateScheduled, now.UnixMilli())
	return ids, err
}
