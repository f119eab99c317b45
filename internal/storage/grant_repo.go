package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GrantRepo is the append-only XP ledger. It exposes inserts and reads only;
// grants are never updated, and the only delete path is the user-deletion
// cascade.
type GrantRepo struct {
	db *sql.DB
}

func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

type GrantInsert struct {
	UserID     uuid.UUID
	StatID     int64
	Amount     int
	SourceType string
	SourceID   *int64
	Reason     *string
	CreatedAt  time.Time
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertGrant(ctx context.Context, ex execer, in GrantInsert) (int64, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO xp_grants (user_id, stat_id, amount, source_type, source_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.UserID.String(), in.StatID, in.Amount, in.SourceType, in.SourceID, in.Reason, in.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("grant insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("grant last insert id: %w", err)
	}
	return id, nil
}

func (r *GrantRepo) Insert(ctx context.Context, in GrantInsert) (int64, error) {
	return insertGrant(ctx, r.db, in)
}

// InsertTx inserts inside a caller-owned transaction. Used where grants must
// commit atomically with another state change (task completion, journal
// finalization).
func (r *GrantRepo) InsertTx(ctx context.Context, tx *sql.Tx, in GrantInsert) (int64, error) {
	return insertGrant(ctx, tx, in)
}

// ListByStat returns grants for a stat ordered by timestamp ascending, with
// insertion order as the tie-break for equal timestamps.
func (r *GrantRepo) ListByStat(ctx context.Context, statID int64, from, to *time.Time) ([]XPGrant, error) {
	q := `
		SELECT id, user_id, stat_id, amount, source_type, source_id, reason, created_at
		FROM xp_grants
		WHERE stat_id = ?`
	args := []any{statID}
	if from != nil {
		q += ` AND created_at >= ?`
		args = append(args, *from)
	}
	if to != nil {
		q += ` AND created_at < ?`
		args = append(args, *to)
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("grant list: %w", err)
	}
	defer rows.Close()

	var out []XPGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grant list rows: %w", err)
	}
	return out, nil
}

// ListByUserRange returns all grants for a user with created_at in [start, end).
func (r *GrantRepo) ListByUserRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]XPGrant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, stat_id, amount, source_type, source_id, reason, created_at
		FROM xp_grants
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC
	`, userID.String(), start, end)
	if err != nil {
		return nil, fmt.Errorf("grant range list: %w", err)
	}
	defer rows.Close()

	var out []XPGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grant range rows: %w", err)
	}
	return out, nil
}

// TotalForStat sums all grant amounts for a stat up to asOf (inclusive of
// everything when asOf is nil).
func (r *GrantRepo) TotalForStat(ctx context.Context, statID int64, asOf *time.Time) (int, error) {
	q := `SELECT COALESCE(SUM(amount), 0) FROM xp_grants WHERE stat_id = ?`
	args := []any{statID}
	if asOf != nil {
		q += ` AND created_at <= ?`
		args = append(args, *asOf)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("grant total: %w", err)
	}
	return total, nil
}

// ExistsForTask reports whether any grant references the task as its source.
// Used to decide between archiving and hard deletion.
func (r *GrantRepo) ExistsForTask(ctx context.Context, taskID int64, sourceTypes []string) (bool, error) {
	if len(sourceTypes) == 0 {
		return false, nil
	}
	q := `SELECT 1 FROM xp_grants WHERE source_id = ? AND source_type IN (`
	args := []any{taskID}
	for i, st := range sourceTypes {
		if i > 0 {
			q += `, `
		}
		q += `?`
		args = append(args, st)
	}
	q += `) LIMIT 1`

	var one int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("grant exists for task: %w", err)
	}
	return true, nil
}

// DeleteByStatTx removes a stat's grants as part of explicit stat deletion.
// Grants are owned by the stat, so they go with it.
func (r *GrantRepo) DeleteByStatTx(ctx context.Context, tx *sql.Tx, statID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM xp_grants WHERE stat_id = ?`, statID); err != nil {
		return fmt.Errorf("grant delete by stat: %w", err)
	}
	return nil
}

// DeleteByUserTx is the user-deletion cascade.
func (r *GrantRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM xp_grants WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("grant delete by user: %w", err)
	}
	return nil
}

func scanGrant(row scanner) (*XPGrant, error) {
	var (
		g         XPGrant
		userIDRaw string
		sourceID  sql.NullInt64
		reason    sql.NullString
	)
	if err := row.Scan(&g.ID, &userIDRaw, &g.StatID, &g.Amount, &g.SourceType, &sourceID, &reason, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("grant scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("grant user id: %w", err)
	}
	g.UserID = uid
	if sourceID.Valid {
		v := sourceID.Int64
		g.SourceID = &v
	}
	if reason.Valid {
		v := reason.String
		g.Reason = &v
	}
	return &g, nil
}
