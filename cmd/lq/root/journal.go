package root

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"j"},
		Short:   "Write and finalize daily journal entries",
	}
	cmd.AddCommand(
		newJournalWriteCmd(),
		newJournalReviewCmd(),
		newJournalSayCmd(),
		newJournalFinalizeCmd(),
		newJournalShowCmd(),
	)
	return cmd
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func newJournalWriteCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "write <message...>",
		Short: "Create or update the day's draft",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("a message is required")
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

			entry, err := svc.SaveDraft(ctx, user.ID, date, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Draft saved for %s.\n", ui.IconPencil, entry.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", today(), "Entry date (YYYY-MM-DD)")

	return cmd
}

func newJournalReviewCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Freeze the draft and start the reflection exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := svc.BeginReview(ctx, user.ID, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Entry for %s is in review. Add turns with: lq journal say\n", ui.IconBook, entry.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", today(), "Entry date (YYYY-MM-DD)")

	return cmd
}

func newJournalSayCmd() *cobra.Command {
	var date string
	var role string

	cmd := &cobra.Command{
		Use:   "say <content...>",
		Short: "Append a turn to the entry in review",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("content is required")
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

			if err := svc.AppendTurn(ctx, user.ID, date, role, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Turn recorded.\n", ui.IconDone)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", today(), "Entry date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&role, "role", "r", "user", "Turn role (user|assistant)")

	return cmd
}

func newJournalFinalizeCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Analyze the conversation and award journal XP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.FinalizeEntry(ctx, user.ID, date)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconBook, "Journal finalized: "+res.Entry.Date))
			if res.Entry.Title != nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Title", *res.Entry.Title))
			}
			if res.Entry.Synopsis != nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Synopsis", *res.Entry.Synopsis))
			}
			if len(res.Entry.ToneTags) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Tones", strings.Join(res.Entry.ToneTags, ", ")))
			}
			if len(res.GrantedXP) > 0 {
				names := make([]string, 0, len(res.GrantedXP))
				for name := range res.GrantedXP {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %+d XP\n", ui.IconBolt, ui.Key.Render(name), res.GrantedXP[name])
				}
			}
			if len(res.RejectedStats) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s ignored unknown stats: %s\n", ui.IconWarn, strings.Join(res.RejectedStats, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", today(), "Entry date (YYYY-MM-DD)")

	return cmd
}

func newJournalShowCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the day's entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := svc.GetJournalEntry(ctx, user.ID, date)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconBook, "Journal: "+entry.Date))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Status", ui.StatusText(entry.Status)))
			fmt.Fprintln(cmd.OutOrStdout(), "")
			fmt.Fprintln(cmd.OutOrStdout(), entry.InitialMessage)
			if entry.Summary != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "")
				fmt.Fprintln(cmd.OutOrStdout(), ui.H2.Render("Summary"))
				fmt.Fprintln(cmd.OutOrStdout(), *entry.Summary)
			}
			if len(entry.ContentTags) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Tags", strings.Join(entry.ContentTags, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", today(), "Entry date (YYYY-MM-DD)")

	return cmd
}
