package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robert-crandall/journal-app/internal/storage"
)

type CreateTaskInput struct {
	UserID         uuid.UUID
	Title          string
	Source         SourceType
	QuestID        *int64
	StatID         *int64
	EstimatedXP    *int
	FamilyMemberID *int64
}

func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*storage.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if !in.Source.IsTaskSource() {
		return nil, ValidationError{Msg: fmt.Sprintf("%q is not a task source type", in.Source)}
	}
	if in.Source.EmitsXP() {
		if in.StatID == nil || in.EstimatedXP == nil {
			return nil, ValidationError{Msg: fmt.Sprintf("%s tasks require a target stat and estimated XP", in.Source)}
		}
		if _, err := s.ownedStat(ctx, in.UserID, *in.StatID); err != nil {
			return nil, err
		}
	} else if in.StatID != nil || in.EstimatedXP != nil {
		return nil, ValidationError{Msg: fmt.Sprintf("%s tasks carry no XP fields", in.Source)}
	}
	if in.QuestID != nil {
		q, err := s.quests.Get(ctx, *in.QuestID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, NotFoundError{Resource: "quest", Ref: fmt.Sprint(*in.QuestID)}
		}
		if q.UserID != in.UserID {
			return nil, ForbiddenError{Resource: "quest", Ref: fmt.Sprint(*in.QuestID)}
		}
	}

	id, err := s.tasks.Insert(ctx, storage.TaskInsert{
		UserID:         in.UserID,
		Title:          title,
		SourceType:     string(in.Source),
		QuestID:        in.QuestID,
		StatID:         in.StatID,
		EstimatedXP:    in.EstimatedXP,
		FamilyMemberID: in.FamilyMemberID,
	})
	if err != nil {
		return nil, err
	}
	return s.tasks.Get(ctx, id)
}

type CompletionResult struct {
	TaskID      int64
	Source      SourceType
	XPAwarded   int
	StatID      *int64
	GrantID     *int64
	CompletedAt time.Time
}

// CompleteTask flips a task to done and, for XP-eligible source types, writes
// the grant in the same transaction. Completing an already-completed task is
// a conflict; exactly one of two concurrent completions wins the conditional
// update, so no double grant can exist.
func (s *Service) CompleteTask(ctx context.Context, userID uuid.UUID, taskID int64, feedback string) (*CompletionResult, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.Archived {
		return nil, NotFoundError{Resource: "task", Ref: fmt.Sprint(taskID)}
	}
	if task.UserID != userID {
		return nil, ForbiddenError{Resource: "task", Ref: fmt.Sprint(taskID)}
	}

	source := SourceType(task.SourceType)
	now := time.Now().UTC()
	var fb *string
	if feedback != "" {
		fb = &feedback
	}

	res := &CompletionResult{TaskID: taskID, Source: source, CompletedAt: now}
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		done, err := s.tasks.MarkDoneTx(ctx, tx, taskID, now, fb)
		if err != nil {
			return err
		}
		if !done {
			return ConflictError{Reason: fmt.Sprintf("task %d is already completed", taskID)}
		}

		if !source.EmitsXP() || task.StatID == nil || task.EstimatedXP == nil {
			return nil
		}

		sid := taskID
		grantID, err := s.grants.InsertTx(ctx, tx, storage.GrantInsert{
			UserID:     userID,
			StatID:     *task.StatID,
			Amount:     *task.EstimatedXP,
			SourceType: string(source),
			SourceID:   &sid,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}
		res.XPAwarded = *task.EstimatedXP
		res.StatID = task.StatID
		res.GrantID = &grantID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DashboardTasks returns the day's dashboard-visible tasks: everything still
// pending plus anything completed that day, so finished work stays in sight.
// Ordered by source priority, then creation time.
func (s *Service) DashboardTasks(ctx context.Context, userID uuid.UUID, date time.Time) ([]storage.Task, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	tasks, err := s.tasks.ListDashboard(ctx, userID, dashboardSourceTypes(), dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		pi := SourceType(tasks[i].SourceType).Priority()
		pj := SourceType(tasks[j].SourceType).Priority()
		if pi != pj {
			return pi < pj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// ArchiveTask hides a task from dashboards. Tasks that have emitted grants
// are never hard-deleted so the ledger keeps resolvable sources; grant-free
// tasks are removed outright.
func (s *Service) ArchiveTask(ctx context.Context, userID uuid.UUID, taskID int64) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return NotFoundError{Resource: "task", Ref: fmt.Sprint(taskID)}
	}
	if task.UserID != userID {
		return ForbiddenError{Resource: "task", Ref: fmt.Sprint(taskID)}
	}

	hasGrants, err := s.grants.ExistsForTask(ctx, taskID, []string{
		string(SourceAITask), string(SourceQuestTask), string(SourceExperimentTask), string(SourceAdHocTask),
	})
	if err != nil {
		return err
	}
	if hasGrants {
		return s.tasks.SetArchived(ctx, taskID, true)
	}
	return s.tasks.Delete(ctx, taskID)
}
