package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type QuestRepo struct {
	db *sql.DB
}

func NewQuestRepo(db *sql.DB) *QuestRepo {
	return &QuestRepo{db: db}
}

type QuestInsert struct {
	UserID               uuid.UUID
	Kind                 string
	Title                string
	Description          string
	Goal                 *string
	StartDate            *time.Time
	EndDate              *time.Time
	InfluencesGeneration bool
}

func (r *QuestRepo) Insert(ctx context.Context, in QuestInsert) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO quests (user_id, kind, title, description, goal, start_date, end_date, influences_generation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.UserID.String(), in.Kind, in.Title, in.Description, in.Goal, in.StartDate, in.EndDate, boolToInt(in.InfluencesGeneration))
	if err != nil {
		return 0, fmt.Errorf("quest insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("quest last insert id: %w", err)
	}
	return id, nil
}

const questColumns = `id, user_id, kind, title, description, goal, start_date, end_date, influences_generation, created_at`

func (r *QuestRepo) Get(ctx context.Context, id int64) (*Quest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+questColumns+`
		FROM quests
		WHERE id = ?
	`, id)
	return scanQuest(row)
}

func (r *QuestRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Quest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questColumns+`
		FROM quests
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("quest list: %w", err)
	}
	defer rows.Close()
	return collectQuests(rows)
}

// ListGenerationActive returns containers that influence AI generation and
// are active at the given time (no dates means always active).
func (r *QuestRepo) ListGenerationActive(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]Quest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questColumns+`
		FROM quests
		WHERE user_id = ? AND influences_generation = 1
		AND (start_date IS NULL OR start_date <= ?)
		AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id ASC
	`, userID.String(), asOf, asOf)
	if err != nil {
		return nil, fmt.Errorf("quest generation list: %w", err)
	}
	defer rows.Close()
	return collectQuests(rows)
}

// Delete removes the container only. Linked tasks and their grants survive.
func (r *QuestRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("quest delete: %w", err)
	}
	return nil
}

func (r *QuestRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM quests WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("quest delete by user: %w", err)
	}
	return nil
}

func collectQuests(rows *sql.Rows) ([]Quest, error) {
	var out []Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest rows: %w", err)
	}
	return out, nil
}

func scanQuest(row scanner) (*Quest, error) {
	var (
		q          Quest
		userIDRaw  string
		goal       sql.NullString
		startDate  sql.NullTime
		endDate    sql.NullTime
		influences int
	)
	if err := row.Scan(&q.ID, &userIDRaw, &q.Kind, &q.Title, &q.Description, &goal, &startDate, &endDate, &influences, &q.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("quest scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("quest user id: %w", err)
	}
	q.UserID = uid
	if goal.Valid {
		v := goal.String
		q.Goal = &v
	}
	if startDate.Valid {
		v := startDate.Time
		q.StartDate = &v
	}
	if endDate.Valid {
		v := endDate.Time
		q.EndDate = &v
	}
	q.InfluencesGeneration = influences != 0
	return &q, nil
}
