package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.RunBoard(ctx, svc, user.ID, cmd.OutOrStdout())
		},
	}

	return cmd
}
