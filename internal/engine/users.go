package engine

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

func (s *Service) CreateUser(ctx context.Context, name string) (*storage.User, error) {
	n, err := normalizeTitle(name)
	if err != nil {
		return nil, err
	}
	existing, err := s.users.GetByName(ctx, n)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ConflictError{Reason: "user " + n + " already exists"}
	}
	return s.users.Insert(ctx, n)
}

// DeleteUser removes the user and everything they own: stats, grants, tasks,
// containers, journal entries and turns, family members. This is the one
// cascade in the system; container deletion deliberately cascades nowhere.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return NotFoundError{Resource: "user", Ref: userID.String()}
	}
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.grants.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.stats.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.tasks.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.quests.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.journal.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.family.DeleteByUserTx(ctx, tx, userID); err != nil {
			return err
		}
		return s.users.DeleteTx(ctx, tx, userID)
	})
}
