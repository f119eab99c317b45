package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

// StatSnapshot is the derived display state for one stat. Level is always
// recomputed from the ledger; only the acknowledged level is stored.
type StatSnapshot struct {
	Stat              storage.Stat
	TotalXP           int
	Level             LevelInfo
	AcknowledgedLevel int
	EligibleToLevelUp bool
}

type CreateStatInput struct {
	UserID      uuid.UUID
	Name        string
	Description string
	Category    string
}

func (s *Service) CreateStat(ctx context.Context, in CreateStatInput) (*storage.Stat, error) {
	name, err := normalizeTitle(in.Name)
	if err != nil {
		return nil, err
	}
	existing, err := s.stats.GetByName(ctx, in.UserID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ConflictError{Reason: fmt.Sprintf("stat %q already exists", name)}
	}
	id, err := s.stats.Insert(ctx, storage.StatInsert{
		UserID:      in.UserID,
		Name:        name,
		Description: in.Description,
		Category:    in.Category,
	})
	if err != nil {
		return nil, err
	}
	return s.stats.Get(ctx, id)
}

func (s *Service) SnapshotStat(ctx context.Context, userID uuid.UUID, statID int64) (*StatSnapshot, error) {
	stat, err := s.ownedStat(ctx, userID, statID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, stat)
}

func (s *Service) SnapshotAll(ctx context.Context, userID uuid.UUID) ([]StatSnapshot, error) {
	stats, err := s.stats.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]StatSnapshot, 0, len(stats))
	for i := range stats {
		snap, err := s.snapshot(ctx, &stats[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (s *Service) snapshot(ctx context.Context, stat *storage.Stat) (*StatSnapshot, error) {
	total, err := s.grants.TotalForStat(ctx, stat.ID, nil)
	if err != nil {
		return nil, err
	}
	info := s.curve.LevelForXP(total)
	return &StatSnapshot{
		Stat:              *stat,
		TotalXP:           total,
		Level:             info,
		AcknowledgedLevel: stat.AcknowledgedLevel,
		EligibleToLevelUp: stat.AcknowledgedLevel < info.Level,
	}, nil
}

// AcknowledgeLevelUp advances the acknowledged level by exactly one. A user
// who earned several levels at once celebrates them one call at a time.
func (s *Service) AcknowledgeLevelUp(ctx context.Context, userID uuid.UUID, statID int64) (*StatSnapshot, error) {
	stat, err := s.ownedStat(ctx, userID, statID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, stat)
	if err != nil {
		return nil, err
	}
	if !snap.EligibleToLevelUp {
		return nil, ConflictError{Reason: fmt.Sprintf("stat %d is not eligible to level up", statID)}
	}

	next := stat.AcknowledgedLevel + 1
	if err := s.stats.UpdateAcknowledgedLevel(ctx, statID, next); err != nil {
		return nil, err
	}
	snap.Stat.AcknowledgedLevel = next
	snap.AcknowledgedLevel = next
	snap.EligibleToLevelUp = next < snap.Level.Level
	return snap, nil
}

// DeleteStat removes a stat and its ledger entries. Grants are owned by the
// stat, so this is the one deliberate grant-deletion path besides removing
// the whole user.
func (s *Service) DeleteStat(ctx context.Context, userID uuid.UUID, statID int64) error {
	if _, err := s.ownedStat(ctx, userID, statID); err != nil {
		return err
	}
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.grants.DeleteByStatTx(ctx, tx, statID); err != nil {
			return err
		}
		return s.stats.DeleteTx(ctx, tx, statID)
	})
}
