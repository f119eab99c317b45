package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/ui"
)

func newFamilyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "family",
		Short: "Manage family members",
	}
	cmd.AddCommand(newFamilyAddCmd(), newFamilyListCmd())
	return cmd
}

func newFamilyAddCmd() *cobra.Command {
	var relationship string
	var likes string
	var dislikes string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a family member",
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

			in := engine.CreateFamilyMemberInput{
				UserID:       user.ID,
				Name:         args[0],
				Relationship: relationship,
			}
			if likes != "" {
				in.Likes = &likes
			}
			if dislikes != "" {
				in.Dislikes = &dislikes
			}
			m, err := svc.CreateFamilyMember(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s (id %d)\n", ui.IconFamily, ui.Key.Render(m.Name), m.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&relationship, "rel", "r", "", "Relationship (wife|son|daughter|...)")
	cmd.Flags().StringVar(&likes, "likes", "", "Things they enjoy")
	cmd.Flags().StringVar(&dislikes, "dislikes", "", "Things they avoid")

	return cmd
}

func newFamilyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List family members by interaction recency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			interactions, err := svc.FamilyInteractions(ctx, user.ID)
			if err != nil {
				return err
			}
			if len(interactions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("(no family members)"))
				return nil
			}
			for _, fi := range interactions {
				last := ui.Warn.Render("never")
				if fi.LastInteraction != nil {
					last = fi.LastInteraction.Format("2006-01-02")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "- %d %s %s %s\n", fi.Member.ID, ui.Key.Render(fi.Member.Name),
					ui.Muted.Render("("+fi.Member.Relationship+")"), ui.LabelValue("last", last))
			}
			return nil
		},
	}

	return cmd
}
