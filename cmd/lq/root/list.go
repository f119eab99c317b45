package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newListCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the day's dashboard tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			date := time.Now().UTC()
			if dateStr != "" {
				date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return errors.New("date must be YYYY-MM-DD")
				}
			}

			tasks, err := svc.DashboardTasks(ctx, user.ID, date)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, "Today: "+date.Format("2006-01-02")))
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("(no tasks)"))
				return nil
			}
			for _, t := range tasks {
				mark := "[ ]"
				if t.Status == "done" {
					mark = "[x]"
				}
				xp := ""
				if t.EstimatedXP != nil {
					xp = ui.Muted.Render(fmt.Sprintf(" (xp %d)", *t.EstimatedXP))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s %s%s\n", mark, t.ID, ui.SourceIcon(t.SourceType), t.Title, xp)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "Dashboard date (YYYY-MM-DD, default today)")

	return cmd
}
