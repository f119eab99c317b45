package engine

import (
	"context"
	"testing"
	"time"
)

func TestGenerationContextVisibility(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	quest, err := svc.CreateQuest(ctx, CreateQuestInput{UserID: user.ID, Kind: QuestKindQuest, Title: "Learn woodworking"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := svc.CreateQuest(ctx, CreateQuestInput{UserID: user.ID, Kind: QuestKindExperiment, Title: "No sugar month"}); err != nil {
		t.Fatalf("create experiment: %v", err)
	}

	stat := mustStat(t, svc, user, "Craft")
	xp := 10
	if _, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Cut dovetails", Source: SourceQuestTask,
		QuestID: &quest.ID, StatID: &stat.ID, EstimatedXP: &xp,
	}); err != nil {
		t.Fatalf("create quest task: %v", err)
	}
	// Experiment tasks and simple todos never reach the generator.
	if _, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Log sugar craving", Source: SourceExperimentTask,
		StatID: &stat.ID, EstimatedXP: &xp,
	}); err != nil {
		t.Fatalf("create experiment task: %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "Renew passport", Source: SourceSimpleTodo}); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	completeEntry(t, svc, fake, user, "2026-08-20", nil)

	gc, err := svc.BuildGenerationContext(ctx, user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	if len(gc.Quests) != 1 || gc.Quests[0].ID != quest.ID {
		t.Fatalf("quests=%+v, want only the quest (experiments hidden)", gc.Quests)
	}
	if len(gc.OpenTasks) != 1 || gc.OpenTasks[0].Title != "Cut dovetails" {
		t.Fatalf("open tasks=%+v, want only the quest task", gc.OpenTasks)
	}
	if len(gc.RecentSummaries) != 1 {
		t.Fatalf("summaries=%v, want 1", gc.RecentSummaries)
	}
}
