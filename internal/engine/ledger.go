package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

// GrantInput describes one XP grant to append. Zero and negative amounts are
// valid; negative grants represent regressions.
type GrantInput struct {
	UserID   uuid.UUID
	StatID   int64
	Amount   int
	Source   SourceType
	SourceID *int64
	Reason   string
}

// AppendGrant writes one immutable entry to the XP ledger. It is the only
// mutation the ledger exposes; corrections are new grants.
func (s *Service) AppendGrant(ctx context.Context, in GrantInput) (int64, error) {
	if !in.Source.IsValid() {
		return 0, ValidationError{Msg: fmt.Sprintf("invalid source type: %q", in.Source)}
	}
	if _, err := s.ownedStat(ctx, in.UserID, in.StatID); err != nil {
		return 0, err
	}

	var reason *string
	if in.Reason != "" {
		reason = &in.Reason
	}
	return s.grants.Insert(ctx, storage.GrantInsert{
		UserID:     in.UserID,
		StatID:     in.StatID,
		Amount:     in.Amount,
		SourceType: string(in.Source),
		SourceID:   in.SourceID,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	})
}

// GrantsForStat returns the stat's ledger entries ordered by timestamp
// ascending, insertion order breaking ties.
func (s *Service) GrantsForStat(ctx context.Context, userID uuid.UUID, statID int64, from, to *time.Time) ([]storage.XPGrant, error) {
	if _, err := s.ownedStat(ctx, userID, statID); err != nil {
		return nil, err
	}
	return s.grants.ListByStat(ctx, statID, from, to)
}

// TotalForStat sums all grants for the stat up to asOf (now when nil).
func (s *Service) TotalForStat(ctx context.Context, userID uuid.UUID, statID int64, asOf *time.Time) (int, error) {
	if _, err := s.ownedStat(ctx, userID, statID); err != nil {
		return 0, err
	}
	return s.grants.TotalForStat(ctx, statID, asOf)
}

// ownedStat resolves a stat and enforces that it belongs to the caller.
// A grant targeting someone else's stat is an integrity violation, rejected
// before anything is written.
func (s *Service) ownedStat(ctx context.Context, userID uuid.UUID, statID int64) (*storage.Stat, error) {
	stat, err := s.stats.Get(ctx, statID)
	if err != nil {
		return nil, err
	}
	if stat == nil {
		return nil, NotFoundError{Resource: "stat", Ref: fmt.Sprint(statID)}
	}
	if stat.UserID != userID {
		return nil, IntegrityError{Msg: fmt.Sprintf("stat %d belongs to another user", statID)}
	}
	return stat, nil
}
