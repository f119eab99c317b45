package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PeriodMetrics is a derived aggregate over one date window. It is a
// materialized view of the ledger, task and journal tables: recomputing it
// for identical inputs yields identical output, and it survives history
// edits by being recomputed, never stored as truth.
type PeriodMetrics struct {
	Start time.Time
	End   time.Time

	TotalXP  int
	XPByStat map[string]int

	TasksCompleted     int
	AverageTasksPerDay float64

	JournalEntries  int
	ToneTagCounts   map[string]int
	ContentTagCounts map[string]int
	MostCommonTone  string

	LogStreak StreakInfo
}

type StreakInfo struct {
	// Current is the unbroken run of daily entries ending at the window end
	// (or at the most recent entry on/before it).
	Current int
	// Longest is the longest unbroken run among entries inside the window.
	Longest int
}

// ComputePeriodMetrics aggregates XP grants, task completions and journal
// tag frequencies over [start, end). Pure read; nothing is mutated.
func (s *Service) ComputePeriodMetrics(ctx context.Context, userID uuid.UUID, start, end time.Time) (*PeriodMetrics, error) {
	if !end.After(start) {
		return nil, ValidationError{Msg: "period end must be after start"}
	}

	m := &PeriodMetrics{
		Start:            start,
		End:              end,
		XPByStat:         map[string]int{},
		ToneTagCounts:    map[string]int{},
		ContentTagCounts: map[string]int{},
	}

	grants, err := s.grants.ListByUserRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	statNames := map[int64]string{}
	if len(grants) > 0 {
		stats, err := s.stats.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, st := range stats {
			statNames[st.ID] = st.Name
		}
	}
	for _, g := range grants {
		m.TotalXP += g.Amount
		name, ok := statNames[g.StatID]
		if !ok {
			continue // stat deleted since; its surviving grants have no display name
		}
		m.XPByStat[name] += g.Amount
	}

	tasks, err := s.tasks.ListCompletedRange(ctx, userID, dashboardSourceTypes(), start, end)
	if err != nil {
		return nil, err
	}
	m.TasksCompleted = len(tasks)
	dayCount := end.Sub(start).Hours() / 24
	if dayCount > 0 {
		m.AverageTasksPerDay = float64(m.TasksCompleted) / dayCount
	}

	startDate := start.UTC().Format(journalDateLayout)
	endDate := end.UTC().Format(journalDateLayout)
	entries, err := s.journal.ListCompletedRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	m.JournalEntries = len(entries)

	// Track each tone's latest occurrence for the tie-break: on equal
	// counts the most recently seen tone wins, equal dates fall back to
	// lexicographic order so the choice is deterministic.
	toneLatest := map[string]string{}
	for _, e := range entries {
		for _, t := range e.ToneTags {
			m.ToneTagCounts[t]++
			if e.Date > toneLatest[t] {
				toneLatest[t] = e.Date
			}
		}
		for _, t := range e.ContentTags {
			m.ContentTagCounts[t]++
		}
	}
	for tone, count := range m.ToneTagCounts {
		best := m.MostCommonTone
		switch {
		case best == "":
			m.MostCommonTone = tone
		case count > m.ToneTagCounts[best]:
			m.MostCommonTone = tone
		case count == m.ToneTagCounts[best]:
			if toneLatest[tone] > toneLatest[best] ||
				(toneLatest[tone] == toneLatest[best] && tone < best) {
				m.MostCommonTone = tone
			}
		}
	}

	streak, err := s.logStreak(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	m.LogStreak = streak

	return m, nil
}

// logStreak walks completed entry dates backward from the window end. The
// current run may extend to days before the window start; the longest run is
// measured among the window's own entries.
func (s *Service) logStreak(ctx context.Context, userID uuid.UUID, start, end time.Time) (StreakInfo, error) {
	// end is exclusive, so the last countable day is the one before it.
	lastDay := end.UTC().AddDate(0, 0, -1).Format(journalDateLayout)
	dates, err := s.journal.ListCompletedDatesUpTo(ctx, userID, lastDay)
	if err != nil {
		return StreakInfo{}, err
	}
	if len(dates) == 0 {
		return StreakInfo{}, nil
	}

	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day, err := time.Parse(journalDateLayout, d)
		if err != nil {
			return StreakInfo{}, err
		}
		days = append(days, day)
	}

	// Current run: consecutive days ending at the most recent entry.
	current := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			current++
		} else {
			break
		}
	}

	// Longest run among entries inside [start, end).
	startDay := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	longest, run := 0, 0
	var prev time.Time
	for _, day := range days {
		if day.Before(startDay) {
			continue
		}
		if run > 0 && prev.AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}

	return StreakInfo{Current: current, Longest: longest}, nil
}
