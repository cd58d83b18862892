package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/content"
)

// ContentRepo reads reference data. It implements content.Store.
type ContentRepo struct {
	db *DB
}

// ContentRepo returns the reference-data repository.
func (db *DB) ContentRepo() *ContentRepo {
	return &ContentRepo{db: db}
}

type studentRow struct {
	ID         string `db:"id"`
	Grade      int    `db:"grade"`
	EnrolledAt int64  `db:"enrolled_at"`
	Tier       string `db:"tier"`
	Active     bool   `db:"active"`
}

type problemRow struct {
	ID            string `db:"id"`
	TopicID       string `db:"topic_id"`
	Subtopic      string `db:"subtopic"`
	Difficulty    int    `db:"difficulty"`
	AnswerType    string `db:"answer_type"`
	Answers       string `db:"answers"`
	Choices       string `db:"choices"`
	Points        int    `db:"points"`
	CompetitionID string `db:"competition_id"`
}

func (r *ContentRepo) Student(ctx context.Context, id string) (*content.Student, error) {
	var row studentRow
	err := r.db.conn.GetContext(ctx, &row,
		`SELECT id, grade, enrolled_at, tier, active FROM students WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("student", id)
	}
	if err != nil {
		return nil, err
	}
	return &content.Student{
		ID:         row.ID,
		Grade:      row.Grade,
		EnrolledAt: time.UnixMilli(row.EnrolledAt).UTC(),
		Tier:       row.Tier,
		Active:     row.Active,
	}, nil
}

func (r *ContentRepo) Topic(ctx context.Context, id string) (*content.Topic, error) {
	var t content.Topic
	err := r.db.conn.QueryRowxContext(ctx,
		`SELECT id, name FROM topics WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("topic", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ContentRepo) Problem(ctx context.Context, id string) (*content.Problem, error) {
	var row problemRow
	err := r.db.conn.GetContext(ctx, &row, `
		SELECT id, topic_id, subtopic, difficulty, answer_type, answers, choices, points, competition_id
		FROM problems WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("problem", id)
	}
	if err != nil {
		return nil, err
	}

	p := &content.Problem{
		ID:            row.ID,
		TopicID:       row.TopicID,
		Subtopic:      row.Subtopic,
		Difficulty:    row.Difficulty,
		AnswerType:    content.AnswerType(row.AnswerType),
		Points:        row.Points,
		CompetitionID: row.CompetitionID,
	}
	if err := json.Unmarshal([]byte(row.Answers), &p.Answers); err != nil {
		return nil, fmt.Errorf("problem %s answers: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.Choices), &p.Choices); err != nil {
		return nil, fmt.Errorf("problem %s choices: %w", id, err)
	}
	return p, nil
}

// Achievements returns active achievement definitions with their
// requirements, in insertion (position) order.
func (r *ContentRepo) Achievements(ctx context.Context) ([]content.Achievement, error) {
	type achievementRow struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		Active      bool   `db:"active"`
	}
	var rows []achievementRow
	err := r.db.conn.SelectContext(ctx, &rows, `
		SELECT id, name, description, active
		FROM achievements WHERE active = 1 ORDER BY position`)
	if err != nil {
		return nil, err
	}

	type reqRow struct {
		AchievementID string  `db:"achievement_id"`
		Kind          string  `db:"kind"`
		Target        float64 `db:"target"`
		TopicID       string  `db:"topic_id"`
	}
	var reqs []reqRow
	err = r.db.conn.SelectContext(ctx, &reqs, `
		SELECT achievement_id, kind, target, topic_id
		FROM achievement_requirements ORDER BY id`)
	if err != nil {
		return nil, err
	}

	byAchievement := make(map[string][]content.Requirement)
	for _, rr := range reqs {
		byAchievement[rr.AchievementID] = append(byAchievement[rr.AchievementID], content.Requirement{
			Kind:    content.RequirementKind(rr.Kind),
			Target:  rr.Target,
			TopicID: rr.TopicID,
		})
	}

	out := make([]content.Achievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, content.Achievement{
			ID:           row.ID,
			Name:         row.Name,
			Description:  row.Description,
			Active:       row.Active,
			Requirements: byAchievement[row.ID],
		})
	}
	return out, nil
}

// PutStudent upserts a student record.
func (r *ContentRepo) PutStudent(ctx context.Context, s *content.Student) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO students (id, grade, enrolled_at, tier, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			grade = excluded.grade, tier = excluded.tier, active = excluded.active`,
		s.ID, s.Grade, s.EnrolledAt.UnixMilli(), s.Tier, s.Active)
	return err
}

// PutTopic upserts a topic.
func (r *ContentRepo) PutTopic(ctx context.Context, t *content.Topic) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO topics (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		t.ID, t.Name)
	return err
}

// PutProblem upserts a problem. Answers and choices are stored as
// JSON arrays.
func (r *ContentRepo) PutProblem(ctx context.Context, p *content.Problem) error {
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return err
	}
	choices := []byte("[]")
	if len(p.Choices) > 0 {
		choices, err = json.Marshal(p.Choices)
		if err != nil {
			return err
		}
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO problems (id, topic_id, subtopic, difficulty, answer_type, answers, choices, points, competition_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			topic_id = excluded.topic_id, subtopic = excluded.subtopic,
			difficulty = excluded.difficulty, answer_type = excluded.answer_type,
			answers = excluded.answers, choices = excluded.choices,
			points = excluded.points, competition_id = excluded.competition_id`,
		p.ID, p.TopicID, p.Subtopic, p.Difficulty, string(p.AnswerType),
		string(answers), string(choices), p.Points, p.CompetitionID)
	return err
}

// PutAchievement upserts an achievement definition and replaces its
// requirements. Position fixes the unlock ordering when several
// achievements become earnable at once.
func (r *ContentRepo) PutAchievement(ctx context.Context, a *content.Achievement, position int) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO achievements (id, name, description, active, position)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, description = excluded.description,
				active = excluded.active, position = excluded.position`,
			a.ID, a.Name, a.Description, a.Active, position)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM achievement_requirements WHERE achievement_id = ?`, a.ID)
		if err != nil {
			return err
		}
		for _, req := range a.Requirements {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO achievement_requirements (achievement_id, kind, target, topic_id)
				VALUES (?, ?, ?, ?)`,
				a.ID, string(req.Kind), req.Target, req.TopicID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
