package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show what the AI task generator would see",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			gc, err := svc.BuildGenerationContext(ctx, user.ID, time.Now().UTC())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconRobot, "Generation Context"))

			fmt.Fprintln(out, ui.H2.Render("Active quests"))
			if len(gc.Quests) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
			}
			for _, q := range gc.Quests {
				fmt.Fprintf(out, "- %s %s\n", ui.IconQuest, q.Title)
			}

			fmt.Fprintln(out, ui.H2.Render("Open tasks"))
			if len(gc.OpenTasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
			}
			for _, t := range gc.OpenTasks {
				fmt.Fprintf(out, "- %s %s\n", ui.SourceIcon(t.SourceType), t.Title)
			}

			fmt.Fprintln(out, ui.H2.Render("Recent journal summaries"))
			if len(gc.RecentSummaries) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
			}
			for _, s := range gc.RecentSummaries {
				fmt.Fprintf(out, "- %s\n", s)
			}

			fmt.Fprintln(out, ui.H2.Render("Family"))
			if len(gc.Family) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
			}
			for _, fi := range gc.Family {
				last := "never"
				if fi.LastInteraction != nil {
					last = fi.LastInteraction.Format("2006-01-02")
				}
				fmt.Fprintf(out, "- %s %s (last: %s)\n", ui.IconFamily, fi.Member.Name, last)
			}
			return nil
		},
	}

	return cmd
}
