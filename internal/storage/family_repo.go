package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type FamilyRepo struct {
	db *sql.DB
}

func NewFamilyRepo(db *sql.DB) *FamilyRepo {
	return &FamilyRepo{db: db}
}

type FamilyMemberInsert struct {
	UserID       uuid.UUID
	Name         string
	Relationship string
	Likes        *string
	Dislikes     *string
}

func (r *FamilyRepo) Insert(ctx context.Context, in FamilyMemberInsert) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (user_id, name, relationship, likes, dislikes)
		VALUES (?, ?, ?, ?, ?)
	`, in.UserID.String(), in.Name, in.Relationship, in.Likes, in.Dislikes)
	if err != nil {
		return 0, fmt.Errorf("family insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("family last insert id: %w", err)
	}
	return id, nil
}

func (r *FamilyRepo) Get(ctx context.Context, id int64) (*FamilyMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, relationship, likes, dislikes, created_at
		FROM family_members
		WHERE id = ?
	`, id)
	return scanFamilyMember(row)
}

func (r *FamilyRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, relationship, likes, dislikes, created_at
		FROM family_members
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("family list: %w", err)
	}
	defer rows.Close()

	var out []FamilyMember
	for rows.Next() {
		m, err := scanFamilyMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("family rows: %w", err)
	}
	return out, nil
}

func (r *FamilyRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM family_members WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("family delete by user: %w", err)
	}
	return nil
}

func scanFamilyMember(row scanner) (*FamilyMember, error) {
	var (
		m         FamilyMember
		userIDRaw string
		likes     sql.NullString
		dislikes  sql.NullString
	)
	if err := row.Scan(&m.ID, &userIDRaw, &m.Name, &m.Relationship, &likes, &dislikes, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("family scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("family user id: %w", err)
	}
	m.UserID = uid
	if likes.Valid {
		v := likes.String
		m.Likes = &v
	}
	if dislikes.Valid {
		v := dislikes.String
		m.Dislikes = &v
	}
	return &m, nil
}
