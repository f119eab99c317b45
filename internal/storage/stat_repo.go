package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type StatRepo struct {
	db *sql.DB
}

func NewStatRepo(db *sql.DB) *StatRepo {
	return &StatRepo{db: db}
}

type StatInsert struct {
	UserID      uuid.UUID
	Name        string
	Description string
	Category    string
}

func (r *StatRepo) Insert(ctx context.Context, in StatInsert) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stats (user_id, name, description, category)
		VALUES (?, ?, ?, ?)
	`, in.UserID.String(), in.Name, in.Description, in.Category)
	if err != nil {
		return 0, fmt.Errorf("stat insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stat last insert id: %w", err)
	}
	return id, nil
}

func (r *StatRepo) Get(ctx context.Context, id int64) (*Stat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, category, acknowledged_level, created_at
		FROM stats
		WHERE id = ?
	`, id)
	return scanStat(row)
}

func (r *StatRepo) GetByName(ctx context.Context, userID uuid.UUID, name string) (*Stat, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, category, acknowledged_level, created_at
		FROM stats
		WHERE user_id = ? AND name = ?
	`, userID.String(), name)
	return scanStat(row)
}

func (r *StatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Stat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, category, acknowledged_level, created_at
		FROM stats
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("stat list: %w", err)
	}
	defer rows.Close()

	var out []Stat
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stat list rows: %w", err)
	}
	return out, nil
}

func (r *StatRepo) UpdateAcknowledgedLevel(ctx context.Context, id int64, level int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE stats SET acknowledged_level = ? WHERE id = ?`, level, id)
	if err != nil {
		return fmt.Errorf("stat update acknowledged level: %w", err)
	}
	return nil
}

// DeleteTx removes the stat row. The caller deletes the stat's grants in the
// same transaction; grants are owned by the stat, not loosely coupled to it.
func (r *StatRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("stat delete: %w", err)
	}
	return nil
}

func (r *StatRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stats WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("stat delete by user: %w", err)
	}
	return nil
}

func scanStat(row scanner) (*Stat, error) {
	var (
		s         Stat
		userIDRaw string
	)
	if err := row.Scan(&s.ID, &userIDRaw, &s.Name, &s.Description, &s.Category, &s.AcknowledgedLevel, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("stat scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("stat user id: %w", err)
	}
	s.UserID = uid
	return &s, nil
}
