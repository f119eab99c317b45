package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

const recentJournalContextLimit = 7

// GenerationContext is everything the AI task generator is allowed to see:
// active quests (never experiments), open context-eligible tasks, recent
// journal summaries, and family members by interaction recency.
type GenerationContext struct {
	Quests          []storage.Quest
	OpenTasks       []storage.Task
	RecentSummaries []string
	Family          []FamilyInteraction
}

func (s *Service) BuildGenerationContext(ctx context.Context, userID uuid.UUID, asOf time.Time) (*GenerationContext, error) {
	quests, err := s.quests.ListGenerationActive(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListPendingByTypes(ctx, userID, generationSourceTypes())
	if err != nil {
		return nil, err
	}
	entries, err := s.journal.ListRecentCompleted(ctx, userID, recentJournalContextLimit)
	if err != nil {
		return nil, err
	}
	var summaries []string
	for _, e := range entries {
		if e.Summary != nil {
			summaries = append(summaries, *e.Summary)
		}
	}
	family, err := s.FamilyInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GenerationContext{
		Quests:          quests,
		OpenTasks:       tasks,
		RecentSummaries: summaries,
		Family:          family,
	}, nil
}
