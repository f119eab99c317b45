package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newDoCmd() *cobra.Command {
	var feedback string

	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a task",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, _ := strconv.ParseInt(args[0], 10, 64)
			res, err := svc.CompleteTask(ctx, user.ID, id, feedback)
			if err != nil {
				return err
			}
			if res.XPAwarded > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Task %d complete: +%d XP %s\n", ui.IconDone, res.TaskID, res.XPAwarded, ui.IconBolt)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Task %d complete.\n", ui.IconDone, res.TaskID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&feedback, "feedback", "f", "", "Optional completion note")

	return cmd
}
