package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

const (
	QuestKindQuest      = "quest"
	QuestKindExperiment = "experiment"
)

type CreateQuestInput struct {
	UserID      uuid.UUID
	Kind        string
	Title       string
	Description string
	Goal        *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateQuest creates a task container. The one behavioral difference between
// the kinds: quests influence AI task generation, experiments never do.
func (s *Service) CreateQuest(ctx context.Context, in CreateQuestInput) (*storage.Quest, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Kind != QuestKindQuest && in.Kind != QuestKindExperiment {
		return nil, ValidationError{Msg: fmt.Sprintf("invalid container kind %q", in.Kind)}
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, ValidationError{Msg: "end date is before start date"}
	}

	id, err := s.quests.Insert(ctx, storage.QuestInsert{
		UserID:               in.UserID,
		Kind:                 in.Kind,
		Title:                title,
		Description:          in.Description,
		Goal:                 in.Goal,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		InfluencesGeneration: in.Kind == QuestKindQuest,
	})
	if err != nil {
		return nil, err
	}
	return s.quests.Get(ctx, id)
}

// DeleteQuest removes the container only. Its tasks keep their (now dangling)
// container reference and their grants are untouched.
func (s *Service) DeleteQuest(ctx context.Context, userID uuid.UUID, questID int64) error {
	q, err := s.quests.Get(ctx, questID)
	if err != nil {
		return err
	}
	if q == nil {
		return NotFoundError{Resource: "quest", Ref: fmt.Sprint(questID)}
	}
	if q.UserID != userID {
		return ForbiddenError{Resource: "quest", Ref: fmt.Sprint(questID)}
	}
	return s.quests.Delete(ctx, questID)
}
