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

func newStatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Manage character stats",
	}
	cmd.AddCommand(newStatAddCmd(), newStatRmCmd())
	return cmd
}

func newStatAddCmd() *cobra.Command {
	var description string
	var category string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a stat",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("name is required")
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

			stat, err := svc.CreateStat(ctx, engine.CreateStatInput{
				UserID:      user.ID,
				Name:        args[0],
				Description: description,
				Category:    category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created stat %s (id %d)\n", ui.IconDone, ui.Key.Render(stat.Name), stat.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "desc", "d", "", "What this stat represents")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Grouping category (body|mind|spirit|...)")

	return cmd
}

func newStatRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a stat and its XP history",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, _ := strconv.ParseInt(args[0], 10, 64)
			if err := svc.DeleteStat(ctx, user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted stat %d and its grants.\n", ui.IconDone, id)
			return nil
		},
	}

	return cmd
}

func idArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("id is required")
	}
	if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
		return errors.New("id must be an integer")
	}
	return nil
}
