package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

// FamilyInteraction pairs a member with their last-interaction timestamp,
// derived from completed tasks referencing the member. No stored field can
// drift from the task history.
type FamilyInteraction struct {
	Member          storage.FamilyMember
	LastInteraction *time.Time
}

type CreateFamilyMemberInput struct {
	UserID       uuid.UUID
	Name         string
	Relationship string
	Likes        *string
	Dislikes     *string
}

func (s *Service) CreateFamilyMember(ctx context.Context, in CreateFamilyMemberInput) (*storage.FamilyMember, error) {
	name, err := normalizeTitle(in.Name)
	if err != nil {
		return nil, err
	}
	id, err := s.family.Insert(ctx, storage.FamilyMemberInsert{
		UserID:       in.UserID,
		Name:         name,
		Relationship: in.Relationship,
		Likes:        in.Likes,
		Dislikes:     in.Dislikes,
	})
	if err != nil {
		return nil, err
	}
	return s.family.Get(ctx, id)
}

// FamilyInteractions lists members with the longest-neglected first, so the
// generator can suggest reconnecting.
func (s *Service) FamilyInteractions(ctx context.Context, userID uuid.UUID) ([]FamilyInteraction, error) {
	members, err := s.family.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]FamilyInteraction, 0, len(members))
	for _, m := range members {
		last, err := s.tasks.LastCompletionForFamilyMember(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, FamilyInteraction{Member: m, LastInteraction: last})
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].LastInteraction, out[j].LastInteraction
		if li == nil {
			return lj != nil
		}
		if lj == nil {
			return false
		}
		return li.Before(*lj)
	})
	return out, nil
}
