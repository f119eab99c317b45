package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show character stats and levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := svc.SnapshotAll(ctx, user.ID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, "Character Status"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("User", user.Name))
			fmt.Fprintln(cmd.OutOrStdout(), "")

			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("No stats yet. Create one with: lq stat add <name>"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.H2.Render("📊 Stats"))
			for _, s := range snaps {
				line := fmt.Sprintf("- %s: lvl %d (xp %d, %d to next)",
					ui.Key.Render(s.Stat.Name), s.Level.Level, s.TotalXP, s.Level.XPToNext)
				if s.EligibleToLevelUp {
					line += " " + ui.Gold.Render(ui.IconTrophy+" level up ready (lq ack "+fmt.Sprint(s.Stat.ID)+")")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	return cmd
}
