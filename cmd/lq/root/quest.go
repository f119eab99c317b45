package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/ui"
)

func newQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Manage quests and experiments",
	}
	cmd.AddCommand(newQuestAddCmd(), newQuestListCmd(), newQuestRmCmd())
	return cmd
}

func newQuestAddCmd() *cobra.Command {
	var kind string
	var description string
	var goal string
	var startDate string
	var endDate string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a quest or experiment",
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

			in := engine.CreateQuestInput{
				UserID:      user.ID,
				Kind:        kind,
				Title:       args[0],
				Description: description,
			}
			if goal != "" {
				in.Goal = &goal
			}
			if startDate != "" {
				t, err := time.Parse("2006-01-02", startDate)
				if err != nil {
					return errors.New("start must be YYYY-MM-DD")
				}
				in.StartDate = &t
			}
			if endDate != "" {
				t, err := time.Parse("2006-01-02", endDate)
				if err != nil {
					return errors.New("end must be YYYY-MM-DD")
				}
				in.EndDate = &t
			}

			q, err := svc.CreateQuest(ctx, in)
			if err != nil {
				return err
			}
			icon := ui.IconQuest
			if q.Kind == engine.QuestKindExperiment {
				icon = ui.IconFlask
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s %s (id %d)\n", icon, q.Kind, ui.Key.Render(q.Title), q.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "quest", "Container kind (quest|experiment)")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Goal statement")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD)")

	return cmd
}

func newQuestListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quests and experiments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			quests, err := svc.QuestRepo().ListByUser(ctx, user.ID)
			if err != nil {
				return err
			}
			if len(quests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("(no quests)"))
				return nil
			}
			for _, q := range quests {
				icon := ui.IconQuest
				if q.Kind == engine.QuestKindExperiment {
					icon = ui.IconFlask
				}
				window := ""
				if q.StartDate != nil && q.EndDate != nil {
					window = fmt.Sprintf(" %s → %s", q.StartDate.Format("2006-01-02"), q.EndDate.Format("2006-01-02"))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "- %d %s %s%s\n", q.ID, icon, q.Title, ui.Muted.Render(window))
			}
			return nil
		},
	}

	return cmd
}

func newQuestRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a container (its tasks and XP survive)",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, _ := strconv.ParseInt(args[0], 10, 64)
			if err := svc.DeleteQuest(ctx, user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted container %d. Tasks and grants kept.\n", ui.IconDone, id)
			return nil
		},
	}

	return cmd
}
