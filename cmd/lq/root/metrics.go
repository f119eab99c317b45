package root

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

func newMetricsCmd() *cobra.Command {
	var period string
	var startStr string
	var endStr string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Summarize a period (XP, tasks, journal tones, streaks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			start, end, err := resolvePeriod(period, startStr, endStr)
			if err != nil {
				return err
			}

			m, err := svc.ComputePeriodMetrics(ctx, user.ID, start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBolt, fmt.Sprintf("Metrics %s → %s",
				m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"))))
			fmt.Fprintln(out, ui.LabelValue("Total XP", m.TotalXP))
			if len(m.XPByStat) > 0 {
				names := make([]string, 0, len(m.XPByStat))
				for name := range m.XPByStat {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "  - %s: %+d\n", name, m.XPByStat[name])
				}
			}
			fmt.Fprintln(out, ui.LabelValue("Tasks completed", fmt.Sprintf("%d (%.1f/day)", m.TasksCompleted, m.AverageTasksPerDay)))
			fmt.Fprintln(out, ui.LabelValue("Journal entries", m.JournalEntries))
			if m.MostCommonTone != "" {
				fmt.Fprintln(out, ui.LabelValue("Dominant tone", m.MostCommonTone))
			}
			fmt.Fprintln(out, ui.LabelValue("Log streak", fmt.Sprintf("%s %d current, %d longest", ui.IconFlame, m.LogStreak.Current, m.LogStreak.Longest)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "week", "Named period (week|month)")
	cmd.Flags().StringVar(&startStr, "start", "", "Explicit start date (YYYY-MM-DD), overrides --period")
	cmd.Flags().StringVar(&endStr, "end", "", "Explicit end date, exclusive (YYYY-MM-DD)")

	return cmd
}

// resolvePeriod turns a named period or an explicit date pair into a
// half-open [start, end) window in UTC.
func resolvePeriod(period, startStr, endStr string) (time.Time, time.Time, error) {
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return time.Time{}, time.Time{}, errors.New("both --start and --end are required")
		}
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
		}
		return start, end, nil
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	switch period {
	case "week":
		return end.AddDate(0, 0, -7), end, nil
	case "month":
		return end.AddDate(0, -1, 0), end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q (want week or month)", period)
	}
}
