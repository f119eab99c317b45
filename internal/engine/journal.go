package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/llm"
	"github.com/robert-crandall/journal-app/internal/storage"
)

const (
	JournalDraft    = "draft"
	JournalInReview = "in_review"
	JournalComplete = "complete"
)

const journalDateLayout = "2006-01-02"

func parseJournalDate(date string) (string, error) {
	d := strings.TrimSpace(date)
	if _, err := time.Parse(journalDateLayout, d); err != nil {
		return "", ValidationError{Msg: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date)}
	}
	return d, nil
}

// SaveDraft creates or updates the day's entry. Only drafts keep the initial
// message mutable; the user may save repeatedly until review begins.
func (s *Service) SaveDraft(ctx context.Context, userID uuid.UUID, date, message string) (*storage.JournalEntry, error) {
	d, err := parseJournalDate(date)
	if err != nil {
		return nil, err
	}

	entry, err := s.journal.GetByDate(ctx, userID, d)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		if _, err := s.journal.InsertDraft(ctx, userID, d, message); err != nil {
			// The unique index on (user, date) catches a concurrent create.
			if strings.Contains(err.Error(), "UNIQUE") {
				return nil, ConflictError{Reason: fmt.Sprintf("journal entry for %s already exists", d)}
			}
			return nil, err
		}
		return s.journal.GetByDate(ctx, userID, d)
	}
	if entry.Status != JournalDraft {
		return nil, ConflictError{Reason: fmt.Sprintf("journal entry for %s is %s; the initial message is frozen", d, entry.Status)}
	}
	if err := s.journal.UpdateInitialMessage(ctx, entry.ID, message); err != nil {
		return nil, err
	}
	return s.journal.GetByDate(ctx, userID, d)
}

func (s *Service) GetJournalEntry(ctx context.Context, userID uuid.UUID, date string) (*storage.JournalEntry, error) {
	d, err := parseJournalDate(date)
	if err != nil {
		return nil, err
	}
	entry, err := s.journal.GetByDate(ctx, userID, d)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, NotFoundError{Resource: "journal entry", Ref: d}
	}
	return entry, nil
}

// BeginReview freezes the initial message and opens the append-only
// conversation exchange.
func (s *Service) BeginReview(ctx context.Context, userID uuid.UUID, date string) (*storage.JournalEntry, error) {
	entry, err := s.GetJournalEntry(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	ok, err := s.journal.UpdateStatus(ctx, entry.ID, JournalDraft, JournalInReview)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ConflictError{Reason: fmt.Sprintf("journal entry for %s is not a draft", entry.Date)}
	}
	return s.journal.GetByDate(ctx, userID, entry.Date)
}

// AppendTurn adds one exchange turn. Turns only exist while in review and
// are never edited or removed once written.
func (s *Service) AppendTurn(ctx context.Context, userID uuid.UUID, date, role, content string) error {
	if role != "user" && role != "assistant" {
		return ValidationError{Msg: fmt.Sprintf("invalid turn role %q", role)}
	}
	if strings.TrimSpace(content) == "" {
		return ValidationError{Msg: "turn content is required"}
	}
	entry, err := s.GetJournalEntry(ctx, userID, date)
	if err != nil {
		return err
	}
	if entry.Status != JournalInReview {
		return ConflictError{Reason: fmt.Sprintf("journal entry for %s is not in review", entry.Date)}
	}
	_, err = s.journal.AppendTurn(ctx, entry.ID, role, content)
	return err
}

// FinalizeResult reports what finalization extracted and granted.
type FinalizeResult struct {
	Entry         storage.JournalEntry
	GrantedXP     map[string]int
	RejectedStats []string
}

// FinalizeEntry runs the analyzer over the frozen conversation and commits
// the extracted fields, the complete status and the journal_tag grants in a
// single transaction. Analyzer failure leaves the entry in in_review with
// nothing written; re-invoking finalize re-sends the same conversation.
func (s *Service) FinalizeEntry(ctx context.Context, userID uuid.UUID, date string) (*FinalizeResult, error) {
	entry, err := s.GetJournalEntry(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if entry.Status == JournalComplete {
		return nil, ConflictError{Reason: fmt.Sprintf("journal entry for %s is already complete", entry.Date)}
	}
	if entry.Status != JournalInReview {
		return nil, ConflictError{Reason: fmt.Sprintf("journal entry for %s has not entered review", entry.Date)}
	}
	if s.analyzer == nil {
		return nil, ExternalServiceError{Err: fmt.Errorf("no analyzer configured")}
	}

	turns, err := s.journal.ListTurns(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	statsByName := make(map[string]*storage.Stat, len(stats))
	validNames := make([]string, 0, len(stats))
	for i := range stats {
		statsByName[stats[i].Name] = &stats[i]
		validNames = append(validNames, stats[i].Name)
	}

	req := llm.AnalyzeRequest{
		Date:           entry.Date,
		InitialMessage: entry.InitialMessage,
		ValidStats:     validNames,
		ToneVocabulary: ToneVocabulary,
		MaxToneTags:    MaxToneTags,
	}
	for _, t := range turns {
		req.Turns = append(req.Turns, llm.ConversationTurn{Role: t.Role, Content: t.Content})
	}

	// The analyzer call holds no locks; pollers see the processing flag
	// until the finalize transaction lands or the call fails.
	if err := s.journal.SetProcessing(ctx, entry.ID, true); err != nil {
		return nil, err
	}
	analysis, err := s.analyzer.AnalyzeJournal(ctx, req)
	if err != nil {
		_ = s.journal.SetProcessing(ctx, entry.ID, false)
		return nil, ExternalServiceError{Err: err}
	}

	toneTags := filterToneTags(analysis.ToneTags)
	granted := map[string]int{}
	var rejected []string
	var grantInputs []storage.GrantInsert
	now := time.Now().UTC()
	entryID := entry.ID
	for _, tag := range analysis.StatTags {
		// Closed-vocabulary enforcement: anything outside the user's own
		// stats is dropped, not trusted. Rejection never blocks finalize.
		stat, ok := statsByName[tag.Stat]
		if !ok {
			rejected = append(rejected, tag.Stat)
			continue
		}
		grantInputs = append(grantInputs, storage.GrantInsert{
			UserID:     userID,
			StatID:     stat.ID,
			Amount:     tag.XP,
			SourceType: string(SourceJournalTag),
			SourceID:   &entryID,
			CreatedAt:  now,
		})
		granted[tag.Stat] += tag.XP
	}

	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := s.journal.CompleteTx(ctx, tx, entry.ID, storage.JournalCompletion{
			Summary:     analysis.Summary,
			Synopsis:    analysis.Synopsis,
			Title:       analysis.Title,
			ContentTags: analysis.ContentTags,
			ToneTags:    toneTags,
			CompletedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError{Reason: fmt.Sprintf("journal entry for %s left review concurrently", entry.Date)}
		}
		for _, g := range grantInputs {
			if _, err := s.grants.InsertTx(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = s.journal.SetProcessing(ctx, entry.ID, false)
		return nil, err
	}

	final, err := s.journal.GetByDate(ctx, userID, entry.Date)
	if err != nil {
		return nil, err
	}
	return &FinalizeResult{Entry: *final, GrantedXP: granted, RejectedStats: rejected}, nil
}

// filterToneTags drops tones outside the closed vocabulary and caps the
// count, keeping the analyzer's order.
func filterToneTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if !IsValidTone(t) {
			continue
		}
		out = append(out, t)
		if len(out) == MaxToneTags {
			break
		}
	}
	return out
}
