package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newAckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ack <stat-id>",
		Short: "Celebrate one pending level-up",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, _ := strconv.ParseInt(args[0], 10, 64)
			snap, err := svc.AcknowledgeLevelUp(ctx, user.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s reached level %d!\n", ui.IconTrophy, ui.Key.Render(snap.Stat.Name), snap.AcknowledgedLevel)
			if snap.EligibleToLevelUp {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Another level-up is still waiting; run ack again."))
			}
			return nil
		},
	}

	return cmd
}
