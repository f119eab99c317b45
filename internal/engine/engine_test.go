package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/robert-crandall/journal-app/internal/llm"
	"github.com/robert-crandall/journal-app/internal/storage"
)

// fakeAnalyzer returns a canned analysis (or error) and counts calls.
type fakeAnalyzer struct {
	analysis *llm.JournalAnalysis
	err      error
	calls    int
	lastReq  llm.AnalyzeRequest
}

func (f *fakeAnalyzer) AnalyzeJournal(ctx context.Context, req llm.AnalyzeRequest) (*llm.JournalAnalysis, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func newTestService(t *testing.T) (*Service, *fakeAnalyzer, *storage.User, func()) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	fake := &fakeAnalyzer{}
	svc := NewService(db, fake, DefaultLevelCurve())
	user, err := svc.UserRepo().GetOrCreateDefault(ctx)
	if err != nil {
		t.Fatalf("get default user: %v", err)
	}
	cleanup := func() {
		_ = db.Close()
	}
	return svc, fake, user, cleanup
}

func mustStat(t *testing.T, svc *Service, user *storage.User, name string) *storage.Stat {
	t.Helper()
	stat, err := svc.CreateStat(context.Background(), CreateStatInput{UserID: user.ID, Name: name})
	if err != nil {
		t.Fatalf("create stat %s: %v", name, err)
	}
	return stat
}

func TestLedgerAppendAndTotal(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Strength")

	amounts := []int{50, 60, -30}
	for _, a := range amounts {
		if _, err := svc.AppendGrant(ctx, GrantInput{
			UserID: user.ID, StatID: stat.ID, Amount: a, Source: SourceManualOverride,
		}); err != nil {
			t.Fatalf("append grant %d: %v", a, err)
		}
	}

	grants, err := svc.GrantsForStat(ctx, user.ID, stat.ID, nil, nil)
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if len(grants) != 3 {
		t.Fatalf("grants=%d, want 3", len(grants))
	}
	for i, g := range grants {
		if g.Amount != amounts[i] {
			t.Fatalf("grant[%d].Amount=%d, want %d", i, g.Amount, amounts[i])
		}
	}

	total, err := svc.TotalForStat(ctx, user.ID, stat.ID, nil)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 80 {
		t.Fatalf("total=%d, want 80", total)
	}
}

func TestGrantRejectsInvalidSource(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Wisdom")
	_, err := svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: stat.ID, Amount: 10, Source: "mystery"})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestGrantRejectsForeignStat(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	other, err := svc.CreateUser(ctx, "guest")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	theirs, err := svc.CreateStat(ctx, CreateStatInput{UserID: other.ID, Name: "Focus"})
	if err != nil {
		t.Fatalf("create stat: %v", err)
	}

	_, err = svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: theirs.ID, Amount: 5, Source: SourceManualOverride})
	var ierr IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("err=%v, want IntegrityError", err)
	}
}

func TestAcknowledgeLevelUpOneAtATime(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Fitness")
	// 300 XP is exactly level 2; two acknowledgements are pending.
	if _, err := svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: stat.ID, Amount: 300, Source: SourceManualOverride}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	snap, err := svc.SnapshotStat(ctx, user.ID, stat.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Level.Level != 2 || !snap.EligibleToLevelUp {
		t.Fatalf("snapshot level=%d eligible=%v, want 2/true", snap.Level.Level, snap.EligibleToLevelUp)
	}

	first, err := svc.AcknowledgeLevelUp(ctx, user.ID, stat.ID)
	if err != nil {
		t.Fatalf("first ack: %v", err)
	}
	if first.AcknowledgedLevel != 1 || !first.EligibleToLevelUp {
		t.Fatalf("first ack=%d eligible=%v, want 1/true", first.AcknowledgedLevel, first.EligibleToLevelUp)
	}

	second, err := svc.AcknowledgeLevelUp(ctx, user.ID, stat.ID)
	if err != nil {
		t.Fatalf("second ack: %v", err)
	}
	if second.AcknowledgedLevel != 2 || second.EligibleToLevelUp {
		t.Fatalf("second ack=%d eligible=%v, want 2/false", second.AcknowledgedLevel, second.EligibleToLevelUp)
	}

	_, err = svc.AcknowledgeLevelUp(ctx, user.ID, stat.ID)
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("third ack err=%v, want ConflictError", err)
	}
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Strength")
	xp := 25
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Morning workout", Source: SourceAdHocTask,
		StatID: &stat.ID, EstimatedXP: &xp,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	res, err := svc.CompleteTask(ctx, user.ID, task.ID, "felt great")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.XPAwarded != 25 {
		t.Fatalf("awarded=%d, want 25", res.XPAwarded)
	}

	_, err = svc.CompleteTask(ctx, user.ID, task.ID, "")
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("second complete err=%v, want ConflictError", err)
	}

	grants, err := svc.GrantsForStat(ctx, user.ID, stat.ID, nil, nil)
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("grants=%d, want exactly 1 after double completion", len(grants))
	}
	if grants[0].SourceType != string(SourceAdHocTask) || grants[0].SourceID == nil || *grants[0].SourceID != task.ID {
		t.Fatalf("grant source=%s/%v, want %s/%d", grants[0].SourceType, grants[0].SourceID, SourceAdHocTask, task.ID)
	}
}

func TestNonXPTaskTypes(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Mind")
	xp := 10

	// Simple todos never carry XP fields.
	_, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Buy milk", Source: SourceSimpleTodo,
		StatID: &stat.ID, EstimatedXP: &xp,
	})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("simple_todo with xp err=%v, want ValidationError", err)
	}

	todo, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "Buy milk", Source: SourceSimpleTodo})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	res, err := svc.CompleteTask(ctx, user.ID, todo.ID, "")
	if err != nil {
		t.Fatalf("complete todo: %v", err)
	}
	if res.XPAwarded != 0 || res.GrantID != nil {
		t.Fatalf("todo completion awarded=%d grant=%v, want 0/nil", res.XPAwarded, res.GrantID)
	}

	// XP-emitting types must name a stat and estimate.
	_, err = svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "Stretch", Source: SourceAITask})
	if !errors.As(err, &verr) {
		t.Fatalf("ai_task without xp err=%v, want ValidationError", err)
	}
}

func TestDashboardOrderingAndVisibility(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Spirit")
	xp := 5

	if _, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "todo", Source: SourceSimpleTodo}); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "subtask", Source: SourceProjectSubtask}); err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "generated", Source: SourceAITask, StatID: &stat.ID, EstimatedXP: &xp,
	}); err != nil {
		t.Fatalf("create ai task: %v", err)
	}

	tasks, err := svc.DashboardTasks(ctx, user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("dashboard tasks=%d, want 2 (subtasks hidden)", len(tasks))
	}
	if tasks[0].SourceType != string(SourceAITask) || tasks[1].SourceType != string(SourceSimpleTodo) {
		t.Fatalf("order=%s,%s, want ai_task first", tasks[0].SourceType, tasks[1].SourceType)
	}
}

func TestQuestDeletionLeavesTasksAndXP(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Adventure")
	quest, err := svc.CreateQuest(ctx, CreateQuestInput{UserID: user.ID, Kind: QuestKindQuest, Title: "Hike every peak"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	xp := 40
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Hike Mt. Si", Source: SourceQuestTask,
		QuestID: &quest.ID, StatID: &stat.ID, EstimatedXP: &xp,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user.ID, task.ID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := svc.DeleteQuest(ctx, user.ID, quest.ID); err != nil {
		t.Fatalf("delete quest: %v", err)
	}

	kept, err := svc.TaskRepo().Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if kept == nil || kept.Status != "done" {
		t.Fatalf("task missing or reset after quest deletion: %+v", kept)
	}
	total, err := svc.TotalForStat(ctx, user.ID, stat.ID, nil)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 40 {
		t.Fatalf("total=%d, want 40 after quest deletion", total)
	}
}

func TestArchiveKeepsGrantedTasks(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Craft")
	xp := 15
	earned, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Sharpen chisels", Source: SourceAdHocTask, StatID: &stat.ID, EstimatedXP: &xp,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user.ID, earned.ID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := svc.ArchiveTask(ctx, user.ID, earned.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	kept, err := svc.TaskRepo().Get(ctx, earned.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if kept == nil || !kept.Archived {
		t.Fatalf("task with grants should be archived, not deleted: %+v", kept)
	}

	// A grant-free task is removed outright.
	fresh, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "scratch", Source: SourceSimpleTodo})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if err := svc.ArchiveTask(ctx, user.ID, fresh.ID); err != nil {
		t.Fatalf("archive todo: %v", err)
	}
	gone, err := svc.TaskRepo().Get(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gone != nil {
		t.Fatalf("grant-free task should be deleted, got %+v", gone)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	svc, _, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "doomed")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	stat, err := svc.CreateStat(ctx, CreateStatInput{UserID: user.ID, Name: "Luck"})
	if err != nil {
		t.Fatalf("create stat: %v", err)
	}
	if _, err := svc.AppendGrant(ctx, GrantInput{UserID: user.ID, StatID: stat.ID, Amount: 10, Source: SourceManualOverride}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	task, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "bye", Source: SourceSimpleTodo})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if got, err := svc.UserRepo().Get(ctx, user.ID); err != nil || got != nil {
		t.Fatalf("user after delete: %v %v", got, err)
	}
	if got, err := svc.StatRepo().Get(ctx, stat.ID); err != nil || got != nil {
		t.Fatalf("stat after delete: %v %v", got, err)
	}
	if got, err := svc.TaskRepo().Get(ctx, task.ID); err != nil || got != nil {
		t.Fatalf("task after delete: %v %v", got, err)
	}
}

func TestFamilyInteractionOrdering(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	wife, err := svc.CreateFamilyMember(ctx, CreateFamilyMemberInput{UserID: user.ID, Name: "Anna", Relationship: "wife"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	son, err := svc.CreateFamilyMember(ctx, CreateFamilyMemberInput{UserID: user.ID, Name: "Ben", Relationship: "son"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID: user.ID, Title: "Board game night", Source: SourceSimpleTodo, FamilyMemberID: &wife.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user.ID, task.ID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	interactions, err := svc.FamilyInteractions(ctx, user.ID)
	if err != nil {
		t.Fatalf("interactions: %v", err)
	}
	if len(interactions) != 2 {
		t.Fatalf("interactions=%d, want 2", len(interactions))
	}
	// Never-interacted members sort first; they are the most neglected.
	if interactions[0].Member.ID != son.ID || interactions[0].LastInteraction != nil {
		t.Fatalf("first=%+v, want never-interacted son", interactions[0])
	}
	if interactions[1].Member.ID != wife.ID || interactions[1].LastInteraction == nil {
		t.Fatalf("second=%+v, want wife with interaction", interactions[1])
	}
}
