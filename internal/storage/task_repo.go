package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

type TaskInsert struct {
	UserID         uuid.UUID
	Title          string
	SourceType     string
	QuestID        *int64
	StatID         *int64
	EstimatedXP    *int
	FamilyMemberID *int64
}

func (r *TaskRepo) Insert(ctx context.Context, in TaskInsert) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, source_type, quest_id, stat_id, estimated_xp, family_member_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')
	`, in.UserID.String(), in.Title, in.SourceType, in.QuestID, in.StatID, in.EstimatedXP, in.FamilyMemberID)
	if err != nil {
		return 0, fmt.Errorf("task insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task last insert id: %w", err)
	}
	return id, nil
}

const taskColumns = `id, user_id, title, source_type, quest_id, stat_id, estimated_xp, family_member_id, status, archived, feedback, created_at, completed_at`

func (r *TaskRepo) Get(ctx context.Context, id int64) (*Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

// MarkDoneTx flips a pending task to done inside the caller's transaction.
// The status guard in the WHERE clause is the idempotency barrier: two
// concurrent completions race on the same row and exactly one sees a
// rows-affected count of 1.
func (r *TaskRepo) MarkDoneTx(ctx context.Context, tx *sql.Tx, id int64, completedAt time.Time, feedback *string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'done', completed_at = ?, feedback = ?
		WHERE id = ? AND status != 'done' AND archived = 0
	`, completedAt, feedback, id)
	if err != nil {
		return false, fmt.Errorf("task mark done: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("task mark done rows: %w", err)
	}
	return n == 1, nil
}

// ListDashboard returns non-archived tasks of the given source types that are
// either still pending or were completed within [dayStart, dayEnd).
func (r *TaskRepo) ListDashboard(ctx context.Context, userID uuid.UUID, sourceTypes []string, dayStart, dayEnd time.Time) ([]Task, error) {
	if len(sourceTypes) == 0 {
		return nil, nil
	}
	q := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND archived = 0 AND source_type IN (` + placeholders(len(sourceTypes)) + `)
		AND (status = 'pending' OR (completed_at >= ? AND completed_at < ?))
		ORDER BY created_at ASC, id ASC`
	args := []any{userID.String()}
	for _, st := range sourceTypes {
		args = append(args, st)
	}
	args = append(args, dayStart, dayEnd)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("task dashboard list: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListCompletedRange returns non-archived tasks of the given source types
// completed within [start, end).
func (r *TaskRepo) ListCompletedRange(ctx context.Context, userID uuid.UUID, sourceTypes []string, start, end time.Time) ([]Task, error) {
	if len(sourceTypes) == 0 {
		return nil, nil
	}
	q := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND archived = 0 AND status = 'done'
		AND source_type IN (` + placeholders(len(sourceTypes)) + `)
		AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at ASC, id ASC`
	args := []any{userID.String()}
	for _, st := range sourceTypes {
		args = append(args, st)
	}
	args = append(args, start, end)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("task completed range list: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListPendingByTypes returns open, non-archived tasks of the given source
// types. Used to assemble generation context.
func (r *TaskRepo) ListPendingByTypes(ctx context.Context, userID uuid.UUID, sourceTypes []string) ([]Task, error) {
	if len(sourceTypes) == 0 {
		return nil, nil
	}
	q := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND archived = 0 AND status = 'pending'
		AND source_type IN (` + placeholders(len(sourceTypes)) + `)
		ORDER BY created_at ASC, id ASC`
	args := []any{userID.String()}
	for _, st := range sourceTypes {
		args = append(args, st)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("task pending list: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) ListByQuest(ctx context.Context, questID int64) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE quest_id = ?
		ORDER BY id ASC
	`, questID)
	if err != nil {
		return nil, fmt.Errorf("task quest list: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tasks SET archived = ? WHERE id = ?`, boolToInt(archived), id)
	if err != nil {
		return fmt.Errorf("task set archived: %w", err)
	}
	return nil
}

// Delete hard-deletes a task row. Callers must verify the task has emitted no
// grants; tasks with grants are archived instead.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("task delete: %w", err)
	}
	return nil
}

// LastCompletionForFamilyMember returns the most recent completion timestamp
// among tasks referencing the member, or nil when there is none.
func (r *TaskRepo) LastCompletionForFamilyMember(ctx context.Context, memberID int64) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT completed_at
		FROM tasks
		WHERE family_member_id = ? AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`, memberID)
	var t time.Time
	if err := row.Scan(&t); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("task last family completion: %w", err)
	}
	return &t, nil
}

func (r *TaskRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("task delete by user: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += "?"
	}
	return s
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func collectTasks(rows *sql.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task rows: %w", err)
	}
	return out, nil
}

func scanTask(row scanner) (*Task, error) {
	var (
		t           Task
		userIDRaw   string
		questID     sql.NullInt64
		statID      sql.NullInt64
		estimatedXP sql.NullInt64
		familyID    sql.NullInt64
		archived    int
		feedback    sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&t.ID, &userIDRaw, &t.Title, &t.SourceType, &questID, &statID, &estimatedXP,
		&familyID, &t.Status, &archived, &feedback, &t.CreatedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("task user id: %w", err)
	}
	t.UserID = uid
	if questID.Valid {
		v := questID.Int64
		t.QuestID = &v
	}
	if statID.Valid {
		v := statID.Int64
		t.StatID = &v
	}
	if estimatedXP.Valid {
		v := int(estimatedXP.Int64)
		t.EstimatedXP = &v
	}
	if familyID.Valid {
		v := familyID.Int64
		t.FamilyMemberID = &v
	}
	t.Archived = archived != 0
	if feedback.Valid {
		v := feedback.String
		t.Feedback = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return &t, nil
}
