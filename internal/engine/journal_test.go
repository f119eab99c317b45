package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/robert-crandall/journal-app/internal/llm"
)

func TestJournalDraftLifecycle(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	entry, err := svc.SaveDraft(ctx, user.ID, "2026-08-01", "First thoughts.")
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if entry.Status != JournalDraft {
		t.Fatalf("status=%s, want draft", entry.Status)
	}

	// Re-saving the same day edits the draft in place.
	updated, err := svc.SaveDraft(ctx, user.ID, "2026-08-01", "Second thoughts.")
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if updated.ID != entry.ID {
		t.Fatalf("update created a new entry: %d != %d", updated.ID, entry.ID)
	}
	if updated.InitialMessage != "Second thoughts." {
		t.Fatalf("initial message=%q", updated.InitialMessage)
	}

	if _, err := svc.BeginReview(ctx, user.ID, "2026-08-01"); err != nil {
		t.Fatalf("begin review: %v", err)
	}

	// The initial message is frozen once review starts.
	_, err = svc.SaveDraft(ctx, user.ID, "2026-08-01", "Too late.")
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("save after review err=%v, want ConflictError", err)
	}

	// Turns only exist in review, with fixed roles.
	if err := svc.AppendTurn(ctx, user.ID, "2026-08-01", "assistant", "What stood out?"); err != nil {
		t.Fatalf("append assistant turn: %v", err)
	}
	if err := svc.AppendTurn(ctx, user.ID, "2026-08-01", "user", "The hike."); err != nil {
		t.Fatalf("append user turn: %v", err)
	}
	var verr ValidationError
	if err := svc.AppendTurn(ctx, user.ID, "2026-08-01", "narrator", "nope"); !errors.As(err, &verr) {
		t.Fatalf("bad role err=%v, want ValidationError", err)
	}
}

func TestSaveDraftRejectsBadDate(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.SaveDraft(context.Background(), user.ID, "Aug 1st", "hi")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestFinalizeGrantsAndFiltering(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	strength := mustStat(t, svc, user, "Strength")
	mustStat(t, svc, user, "Wisdom")

	if _, err := svc.SaveDraft(ctx, user.ID, "2026-08-02", "Gym then reading."); err != nil {
		t.Fatalf("draft: %v", err)
	}
	if _, err := svc.BeginReview(ctx, user.ID, "2026-08-02"); err != nil {
		t.Fatalf("review: %v", err)
	}

	fake.analysis = &llm.JournalAnalysis{
		Summary:     "A productive day of training and study.",
		Synopsis:    "Gym and books.",
		Title:       "Iron and ink",
		ContentTags: []string{"fitness", "reading"},
		// One invalid tone and one extra beyond the cap; both must be dropped.
		ToneTags: []string{"happy", "exuberant", "calm", "content"},
		StatTags: []llm.StatTag{
			{Stat: "Strength", XP: 20},
			{Stat: "Wisdom", XP: 10},
			{Stat: "NotAStat", XP: 99},
		},
	}

	res, err := svc.FinalizeEntry(ctx, user.ID, "2026-08-02")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Entry.Status != JournalComplete {
		t.Fatalf("status=%s, want complete", res.Entry.Status)
	}
	if res.Entry.Processing {
		t.Fatalf("processing flag still set after finalize")
	}
	if got := res.Entry.ToneTags; len(got) != 2 || got[0] != "happy" || got[1] != "calm" {
		t.Fatalf("tone tags=%v, want [happy calm]", got)
	}
	if res.GrantedXP["Strength"] != 20 || res.GrantedXP["Wisdom"] != 10 {
		t.Fatalf("granted=%v", res.GrantedXP)
	}
	if len(res.RejectedStats) != 1 || res.RejectedStats[0] != "NotAStat" {
		t.Fatalf("rejected=%v, want [NotAStat]", res.RejectedStats)
	}

	grants, err := svc.GrantsForStat(ctx, user.ID, strength.ID, nil, nil)
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if len(grants) != 1 || grants[0].SourceType != string(SourceJournalTag) {
		t.Fatalf("grants=%+v, want one journal_tag grant", grants)
	}
	if grants[0].SourceID == nil || *grants[0].SourceID != res.Entry.ID {
		t.Fatalf("grant source id=%v, want entry %d", grants[0].SourceID, res.Entry.ID)
	}

	// Finalize is terminal.
	_, err = svc.FinalizeEntry(ctx, user.ID, "2026-08-02")
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("second finalize err=%v, want ConflictError", err)
	}
}

func TestFinalizeRequiresReview(t *testing.T) {
	svc, _, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := svc.SaveDraft(ctx, user.ID, "2026-08-03", "draft only"); err != nil {
		t.Fatalf("draft: %v", err)
	}
	_, err := svc.FinalizeEntry(ctx, user.ID, "2026-08-03")
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("finalize draft err=%v, want ConflictError", err)
	}
}

func TestFinalizeAnalyzerFailureLeavesReview(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	stat := mustStat(t, svc, user, "Calm")
	if _, err := svc.SaveDraft(ctx, user.ID, "2026-08-04", "Long day."); err != nil {
		t.Fatalf("draft: %v", err)
	}
	if _, err := svc.BeginReview(ctx, user.ID, "2026-08-04"); err != nil {
		t.Fatalf("review: %v", err)
	}

	fake.err = fmt.Errorf("model unavailable")
	_, err := svc.FinalizeEntry(ctx, user.ID, "2026-08-04")
	var eerr ExternalServiceError
	if !errors.As(err, &eerr) {
		t.Fatalf("err=%v, want ExternalServiceError", err)
	}

	entry, err := svc.GetJournalEntry(ctx, user.ID, "2026-08-04")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Status != JournalInReview {
		t.Fatalf("status=%s, want in_review after analyzer failure", entry.Status)
	}
	if entry.Processing {
		t.Fatalf("processing flag not cleared after failure")
	}
	grants, err := svc.GrantsForStat(ctx, user.ID, stat.ID, nil, nil)
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("grants=%d, want none after failed finalize", len(grants))
	}

	// Retrying with a healthy analyzer completes normally.
	fake.err = nil
	fake.analysis = &llm.JournalAnalysis{Summary: "Recovered.", StatTags: []llm.StatTag{{Stat: "Calm", XP: 5}}}
	res, err := svc.FinalizeEntry(ctx, user.ID, "2026-08-04")
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if res.Entry.Status != JournalComplete || res.GrantedXP["Calm"] != 5 {
		t.Fatalf("retry result=%+v", res)
	}
}

func TestFinalizeSendsFrozenConversation(t *testing.T) {
	svc, fake, user, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	mustStat(t, svc, user, "Focus")
	if _, err := svc.SaveDraft(ctx, user.ID, "2026-08-05", "Deep work."); err != nil {
		t.Fatalf("draft: %v", err)
	}
	if _, err := svc.BeginReview(ctx, user.ID, "2026-08-05"); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := svc.AppendTurn(ctx, user.ID, "2026-08-05", "assistant", "How long?"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if err := svc.AppendTurn(ctx, user.ID, "2026-08-05", "user", "Four hours."); err != nil {
		t.Fatalf("turn: %v", err)
	}

	fake.analysis = &llm.JournalAnalysis{Summary: "Focused."}
	if _, err := svc.FinalizeEntry(ctx, user.ID, "2026-08-05"); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	req := fake.lastReq
	if req.InitialMessage != "Deep work." {
		t.Fatalf("initial message=%q", req.InitialMessage)
	}
	if len(req.Turns) != 2 || req.Turns[1].Content != "Four hours." {
		t.Fatalf("turns=%+v", req.Turns)
	}
	if len(req.ValidStats) != 1 || req.ValidStats[0] != "Focus" {
		t.Fatalf("valid stats=%v", req.ValidStats)
	}
	if req.MaxToneTags != MaxToneTags {
		t.Fatalf("max tone tags=%d", req.MaxToneTags)
	}
}
