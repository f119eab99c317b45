package engine

import (
	"context"
	"testing"
	"time"

	"github.com/robert-crandall/journal-app/internal/llm"
	"github.com/robert-crandall/journal-app/internal/storage"
)

func completeEntry(t *testing.T, svc *Service, fake *fakeAnalyzer, user *storage.User, date string, tones []string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.SaveDraft(ctx, user.ID, date, "entry for "+date); err != nil {
		t.Fatalf("draft %s: %v", date, err)
	}
	if _, err := svc.BeginReview(ctx, user.ID, date); err != nil {
		t.Fatalf("review %s: %v", date, err)
	}
	fake.analysis = &llm.JournalAnalysis{Summary: "day " + date, ToneTags: tones, ContentTags: []string{"life"}}
	if _, err := svc.FinalizeEntry(ctx, user.ID, date); err != nil {
		t.Fatalf("finalize %s: %v", date, err)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodMetricsAggregates(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Vigor")
	if _, err := svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: stat.ID, Amount: 30, Source: SourceManualOverride}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: stat.ID, Amount: -10, Source: SourceManualOverride}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	xp := 25
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Run 5k", Source: SourceAdHocTask, StatID: &stat.ID, EstimatedXP: &xp,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user.ID, task.ID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	m, err := svc.ComputePeriodMetrics(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.TotalXP != 45 {
		t.Fatalf("total xp=%d, want 45", m.TotalXP)
	}
	if m.XPByStat["Vigor"] != 45 {
		t.Fatalf("xp by stat=%v", m.XPByStat)
	}
	if m.TasksCompleted != 1 {
		t.Fatalf("tasks=%d, want 1", m.TasksCompleted)
	}
	if m.AverageTasksPerDay != 0.5 {
		t.Fatalf("avg tasks/day=%v, want 0.5", m.AverageTasksPerDay)
	}

	// Same inputs, same answer. The aggregate is derived, never stored.
	again, err := svc.ComputePeriodMetrics(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("metrics again: %v", err)
	}
	if again.TotalXP != m.TotalXP || again.TasksCompleted != m.TasksCompleted {
		t.Fatalf("recompute drifted: %+v vs %+v", again, m)
	}
}

func TestPeriodMetricsRejectsEmptyWindow(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()

	start := day(2026, time.July, 1)
	if _, err := svc.ComputePeriodMetrics(context.Background(), user.ID, start, start); err == nil {
		t.Fatalf("expected error for empty window")
	}
}

func TestMostCommonToneRecencyTieBreak(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	completeEntry(t, svc, fake, user, "2026-07-01", []string{"happy"})
	completeEntry(t, svc, fake, user, "2026-07-02", []string{"calm"})

	m, err := svc.ComputePeriodMetrics(ctx, user.ID, day(2026, time.July, 1), day(2026, time.July, 5))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.JournalEntries != 2 {
		t.Fatalf("entries=%d, want 2", m.JournalEntries)
	}
	if m.ToneTagCounts["happy"] != 1 || m.ToneTagCounts["calm"] != 1 {
		t.Fatalf("tone counts=%v", m.ToneTagCounts)
	}
	// Equal counts: the more recently seen tone wins.
	if m.MostCommonTone != "calm" {
		t.Fatalf("most common tone=%q, want calm", m.MostCommonTone)
	}
}

func TestMostCommonToneLexicographicTieBreak(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	completeEntry(t, svc, fake, user, "2026-07-10", []string{"sad", "angry"})

	m, err := svc.ComputePeriodMetrics(ctx, user.ID, day(2026, time.July, 10), day(2026, time.July, 11))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	// Equal counts and equal dates: lexicographic order decides.
	if m.MostCommonTone != "angry" {
		t.Fatalf("most common tone=%q, want angry", m.MostCommonTone)
	}
}

func TestLogStreaks(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	for _, d := range []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-05"} {
		completeEntry(t, svc, fake, user, d, nil)
	}

	// Window covering everything: the current run ends at the lone 03-05
	// entry, the longest run inside the window is the three-day block.
	m, err := svc.ComputePeriodMetrics(ctx, user.ID, day(2026, time.March, 1), day(2026, time.March, 6))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.JournalEntries != 4 {
		t.Fatalf("entries=%d, want 4", m.JournalEntries)
	}
	if m.LogStreak.Current != 1 || m.LogStreak.Longest != 3 {
		t.Fatalf("streak=%+v, want current 1, longest 3", m.LogStreak)
	}

	// Window ending before the gap: the run through 03-03 is still alive.
	m2, err := svc.ComputePeriodMetrics(ctx, user.ID, day(2026, time.March, 1), day(2026, time.March, 4))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m2.LogStreak.Current != 3 {
		t.Fatalf("streak=%+v, want current 3", m2.LogStreak)
	}

	// The current run may reach back past the window start; the longest run
	// is confined to the window.
	m3, err := svc.ComputePeriodMetrics(ctx, user.ID, day(2026, time.March, 3), day(2026, time.March, 4))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m3.LogStreak.Current != 3 || m3.LogStreak.Longest != 1 {
		t.Fatalf("streak=%+v, want current 3, longest 1", m3.LogStreak)
	}
}
