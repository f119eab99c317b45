package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// InsertDraft creates the day's entry. The UNIQUE(user_id, entry_date) index
// is the duplicate-entry barrier; concurrent creates for the same day fail
// here rather than check-then-write in the engine.
func (r *JournalRepo) InsertDraft(ctx context.Context, userID uuid.UUID, date, initialMessage string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_entries (user_id, entry_date, status, initial_message)
		VALUES (?, ?, 'draft', ?)
	`, userID.String(), date, initialMessage)
	if err != nil {
		return 0, fmt.Errorf("journal insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal last insert id: %w", err)
	}
	return id, nil
}

const journalColumns = `id, user_id, entry_date, status, processing, initial_message, summary, synopsis, title, content_tags, tone_tags, created_at, completed_at`

func (r *JournalRepo) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*JournalEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE user_id = ? AND entry_date = ?
	`, userID.String(), date)
	return scanJournalEntry(row)
}

func (r *JournalRepo) UpdateInitialMessage(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE journal_entries SET initial_message = ? WHERE id = ? AND status = 'draft'
	`, message, id)
	if err != nil {
		return fmt.Errorf("journal update message: %w", err)
	}
	return nil
}

func (r *JournalRepo) UpdateStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE journal_entries SET status = ? WHERE id = ? AND status = ?
	`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("journal update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("journal update status rows: %w", err)
	}
	return n == 1, nil
}

// SetProcessing flips the in-flight indicator shown to pollers while the
// analyzer call is outstanding.
func (r *JournalRepo) SetProcessing(ctx context.Context, id int64, processing bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE journal_entries SET processing = ? WHERE id = ?`, boolToInt(processing), id)
	if err != nil {
		return fmt.Errorf("journal set processing: %w", err)
	}
	return nil
}

type JournalCompletion struct {
	Summary     string
	Synopsis    string
	Title       string
	ContentTags []string
	ToneTags    []string
	CompletedAt time.Time
}

// CompleteTx writes the extracted fields and flips in_review to complete in
// the caller's transaction, so the status change commits atomically with the
// journal_tag grants.
func (r *JournalRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id int64, c JournalCompletion) (bool, error) {
	contentJSON, err := json.Marshal(c.ContentTags)
	if err != nil {
		return false, fmt.Errorf("marshal content tags: %w", err)
	}
	toneJSON, err := json.Marshal(c.ToneTags)
	if err != nil {
		return false, fmt.Errorf("marshal tone tags: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE journal_entries
		SET status = 'complete', processing = 0, summary = ?, synopsis = ?, title = ?,
			content_tags = ?, tone_tags = ?, completed_at = ?
		WHERE id = ? AND status = 'in_review'
	`, c.Summary, c.Synopsis, c.Title, string(contentJSON), string(toneJSON), c.CompletedAt, id)
	if err != nil {
		return false, fmt.Errorf("journal complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("journal complete rows: %w", err)
	}
	return n == 1, nil
}

func (r *JournalRepo) AppendTurn(ctx context.Context, entryID int64, role, content string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_turns (entry_id, role, content)
		VALUES (?, ?, ?)
	`, entryID, role, content)
	if err != nil {
		return 0, fmt.Errorf("journal turn insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal turn last insert id: %w", err)
	}
	return id, nil
}

func (r *JournalRepo) ListTurns(ctx context.Context, entryID int64) ([]JournalTurn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_id, role, content, created_at
		FROM journal_turns
		WHERE entry_id = ?
		ORDER BY id ASC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("journal turns list: %w", err)
	}
	defer rows.Close()

	var out []JournalTurn
	for rows.Next() {
		var t JournalTurn
		if err := rows.Scan(&t.ID, &t.EntryID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal turn scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal turns rows: %w", err)
	}
	return out, nil
}

// ListCompletedRange returns complete entries with entry_date in
// [startDate, endDate), dates as YYYY-MM-DD strings.
func (r *JournalRepo) ListCompletedRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE user_id = ? AND status = 'complete' AND entry_date >= ? AND entry_date < ?
		ORDER BY entry_date ASC
	`, userID.String(), startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("journal range list: %w", err)
	}
	defer rows.Close()
	return collectJournalEntries(rows)
}

// ListCompletedDatesUpTo returns distinct complete entry dates up to and
// including the given date, ascending. Feeds streak computation.
func (r *JournalRepo) ListCompletedDatesUpTo(ctx context.Context, userID uuid.UUID, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_date
		FROM journal_entries
		WHERE user_id = ? AND status = 'complete' AND entry_date <= ?
		ORDER BY entry_date ASC
	`, userID.String(), date)
	if err != nil {
		return nil, fmt.Errorf("journal dates list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("journal date scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal dates rows: %w", err)
	}
	return out, nil
}

// ListRecentCompleted returns the most recent complete entries, newest first.
func (r *JournalRepo) ListRecentCompleted(ctx context.Context, userID uuid.UUID, limit int) ([]JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE user_id = ? AND status = 'complete'
		ORDER BY entry_date DESC
		LIMIT ?
	`, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("journal recent list: %w", err)
	}
	defer rows.Close()
	return collectJournalEntries(rows)
}

func (r *JournalRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM journal_turns WHERE entry_id IN (SELECT id FROM journal_entries WHERE user_id = ?)
	`, userID.String()); err != nil {
		return fmt.Errorf("journal turns delete by user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("journal delete by user: %w", err)
	}
	return nil
}

func collectJournalEntries(rows *sql.Rows) ([]JournalEntry, error) {
	var out []JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal rows: %w", err)
	}
	return out, nil
}

func scanJournalEntry(row scanner) (*JournalEntry, error) {
	var (
		e           JournalEntry
		userIDRaw   string
		processing  int
		summary     sql.NullString
		synopsis    sql.NullString
		title       sql.NullString
		contentRaw  sql.NullString
		toneRaw     sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&e.ID, &userIDRaw, &e.Date, &e.Status, &processing, &e.InitialMessage,
		&summary, &synopsis, &title, &contentRaw, &toneRaw, &e.CreatedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("journal scan: %w", err)
	}
	uid, err := uuid.Parse(userIDRaw)
	if err != nil {
		return nil, fmt.Errorf("journal user id: %w", err)
	}
	e.UserID = uid
	e.Processing = processing != 0
	if summary.Valid {
		v := summary.String
		e.Summary = &v
	}
	if synopsis.Valid {
		v := synopsis.String
		e.Synopsis = &v
	}
	if title.Valid {
		v := title.String
		e.Title = &v
	}
	if contentRaw.Valid && contentRaw.String != "" {
		if err := json.Unmarshal([]byte(contentRaw.String), &e.ContentTags); err != nil {
			return nil, fmt.Errorf("unmarshal content tags: %w", err)
		}
	}
	if toneRaw.Valid && toneRaw.String != "" {
		if err := json.Unmarshal([]byte(toneRaw.String), &e.ToneTags); err != nil {
			return nil, fmt.Errorf("unmarshal tone tags: %w", err)
		}
	}
	if completedAt.Valid {
		v := completedAt.Time
		e.CompletedAt = &v
	}
	return &e, nil
}
