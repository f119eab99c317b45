package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/storage"
	"github.com/robert-crandall/journal-app/internal/ui"
)

type boardModel struct {
	ctx    context.Context
	svc    *engine.Service
	userID uuid.UUID

	width  int
	height int

	stats []engine.StatSnapshot
	tasks []storage.Task

	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	stats []engine.StatSnapshot
	tasks []storage.Task
	err   error
}

type completedMsg struct {
	id  int64
	res *engine.CompletionResult
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service, userID uuid.UUID) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		userID:  userID,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.svc.SnapshotAll(m.ctx, m.userID)
		if err != nil {
			return loadedMsg{err: err}
		}
		tasks, err := m.svc.DashboardTasks(m.ctx, m.userID, time.Now().UTC())
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{stats: stats, tasks: tasks}
	}
}

func (m boardModel) completeCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, m.userID, id, "")
		return completedMsg{id: id, res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.stats = msg.stats
		m.tasks = msg.tasks
		if m.selected >= len(m.tasks) {
			m.selected = len(m.tasks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, m.loadCmd()
		}
		if msg.res.XPAwarded > 0 {
			m.lastLog = fmt.Sprintf("Completed %d: +%d XP", msg.res.TaskID, msg.res.XPAwarded)
		} else {
			m.lastLog = fmt.Sprintf("Completed %d.", msg.res.TaskID)
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.tasks)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ", "enter":
			if m.selected < 0 || m.selected >= len(m.tasks) {
				return m, nil
			}
			t := m.tasks[m.selected]
			if t.Status == "done" {
				m.lastLog = "Already done."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Completing %d…", t.ID)
			return m, m.completeCmd(t.ID)
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	// Simple 2-column layout.
	leftW := 30
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 20 {
			leftW = 20
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	max := len(linesLeft)
	if len(linesRight) > max {
		max = len(linesRight)
	}

	var body strings.Builder
	for i := 0; i < max; i++ {
		l := ""
		r := ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	totalXP := 0
	for _, s := range m.stats {
		totalXP += s.TotalXP
	}
	return fmt.Sprintf("LifeQuest | %s | %d stats | %d XP total",
		time.Now().UTC().Format("2006-01-02"), len(m.stats), totalXP)
}

func (m boardModel) renderSidebar() string {
	lines := []string{"Stats"}
	if m.loading && len(m.stats) == 0 {
		lines = append(lines, "Loading…")
	}
	for _, s := range m.stats {
		lines = append(lines, renderStat(s))
	}
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- c/space/enter: complete")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	var out []string
	out = append(out, "Today")
	if len(m.tasks) == 0 {
		out = append(out, "(no tasks for today)")
		return strings.Join(out, "\n")
	}
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := "[ ]"
		if t.Status == "done" {
			mark = "[x]"
		}
		xp := ""
		if t.EstimatedXP != nil {
			xp = fmt.Sprintf(" (xp=%d)", *t.EstimatedXP)
		}
		out = append(out, fmt.Sprintf("%s%s %s %s%s", cursor, mark, ui.SourceIcon(t.SourceType), t.Title, xp))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func renderStat(s engine.StatSnapshot) string {
	span := s.Level.XPIntoLevel + s.Level.XPToNext
	bar := progressBar(s.Level.XPIntoLevel, span, 12)
	badge := ""
	if s.EligibleToLevelUp {
		badge = " " + ui.IconSparkle
	}
	return fmt.Sprintf("- %s L%d %s%s", s.Stat.Name, s.Level.Level, bar, badge)
}

func progressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	ratio := float64(value) / float64(total)
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
