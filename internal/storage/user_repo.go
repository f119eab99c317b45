package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DefaultUserName identifies the implicit local user created for CLI use.
const DefaultUserName = "main"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Insert(ctx context.Context, name string) (*User, error) {
	id := uuid.New()
	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, id.String(), name); err != nil {
		return nil, fmt.Errorf("user insert: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM users WHERE name = ? LIMIT 1`, name)
	return scanUser(row)
}

// GetOrCreateDefault returns the single local user, creating it on first use.
func (r *UserRepo) GetOrCreateDefault(ctx context.Context) (*User, error) {
	u, err := r.GetByName(ctx, DefaultUserName)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return r.Insert(ctx, DefaultUserName)
}

func (r *UserRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	return nil
}

func scanUser(row scanner) (*User, error) {
	var (
		u     User
		idRaw string
	)
	if err := row.Scan(&idRaw, &u.Name, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	return &u, nil
}
