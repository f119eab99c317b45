package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/ui"
)

func newAddCmd() *cobra.Command {
	var source string
	var statID int64
	var xp int
	var questID int64
	var familyID int64

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			src, err := engine.ParseSourceType(source)
			if err != nil {
				return err
			}

			in := engine.CreateTaskInput{
				UserID: user.ID,
				Title:  args[0],
				Source: src,
			}
			if cmd.Flags().Changed("stat") {
				in.StatID = &statID
			}
			if cmd.Flags().Changed("xp") {
				in.EstimatedXP = &xp
			}
			if cmd.Flags().Changed("quest") {
				in.QuestID = &questID
			}
			if cmd.Flags().Changed("family") {
				in.FamilyMemberID = &familyID
			}

			task, err := svc.CreateTask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s %s (id %d)\n", ui.IconDone, ui.SourceIcon(task.SourceType), ui.Key.Render(task.Title), task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "ad_hoc_task", "Source type (ai_task|quest_task|experiment_task|ad_hoc_task|simple_todo|project_subtask|adventure_subtask)")
	cmd.Flags().Int64Var(&statID, "stat", 0, "Target stat ID (XP-emitting types)")
	cmd.Flags().IntVar(&xp, "xp", 0, "Estimated XP (XP-emitting types)")
	cmd.Flags().Int64VarP(&questID, "quest", "q", 0, "Container quest/experiment ID")
	cmd.Flags().Int64Var(&familyID, "family", 0, "Family member this task connects with")

	return cmd
}
