package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/ui"
)

func newGrantCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "grant <stat-id> <amount>",
		Short: "Append a manual XP grant (negative allowed)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("stat id and amount are required")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return errors.New("stat id must be an integer")
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return errors.New("amount must be an integer")
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

			statID, _ := strconv.ParseInt(args[0], 10, 64)
			amount, _ := strconv.Atoi(args[1])

			id, err := svc.AppendGrant(ctx, engine.GrantInput{
				UserID: user.ID,
				StatID: statID,
				Amount: amount,
				Source: engine.SourceManualOverride,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Grant %d recorded: %+d XP on stat %d\n", ui.IconBolt, id, amount, statID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why this adjustment exists")

	return cmd
}
