// Package cli renders tasks, projects, and statistics as terminal tables.
// Styling degrades to plain text when stdout is not a terminal.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/entrhq/gittask/pkg/storage"
	"github.com/entrhq/gittask/pkg/task"
)

var (
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
	colorRed    = lipgloss.Color("1")
	colorGray   = lipgloss.Color("8")

	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorGray)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusPending:    lipgloss.NewStyle().Foreground(colorYellow),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(colorBlue),
		task.StatusCompleted:  lipgloss.NewStyle().Foreground(colorGreen),
		task.StatusArchived:   dimStyle,
	}
)

func colorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func styled(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

// Success prints a confirmation message to stdout.
func Success(msg string) {
	fmt.Println(styled(successStyle, "✓ "+msg))
}

// Error prints an error message to stderr.
func Error(msg string) {
	fmt.Fprintln(os.Stderr, styled(errorStyle, "error: "+msg))
}

// Info prints an informational message to stdout.
func Info(msg string) {
	fmt.Println(msg)
}

const maxTitleWidth = 40

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// renderTable lays out rows as fixed-width columns under a bold header.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	var sb strings.Builder
	var headerCells []string
	for i, h := range headers {
		headerCells = append(headerCells, pad(h, widths[i]))
	}
	sb.WriteString(styled(headerStyle, strings.Join(headerCells, "  ")))
	sb.WriteString("\n")
	for _, row := range rows {
		var cells []string
		for i, cell := range row {
			cells = append(cells, pad(cell, widths[i]))
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func statusCell(s task.Status) string {
	if style, ok := statusStyles[s]; ok {
		return styled(style, string(s))
	}
	return string(s)
}

func dueCell(d *task.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// PrintTaskList renders tasks as a table, one row per task.
func PrintTaskList(tasks []*task.Task) {
	if len(tasks) == 0 {
		Info("No tasks found.")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.FormatUint(t.ID, 10),
			string(t.Kind),
			truncate(t.Title, maxTitleWidth),
			statusCell(t.Status),
			string(t.Priority),
			dueCell(t.Due),
		})
	}
	fmt.Print(renderTable([]string{"ID", "Kind", "Title", "Status", "Priority", "Due"}, rows))
}

// PrintAggregatedList renders cross-project tasks with their qualified IDs.
func PrintAggregatedList(tasks []*storage.AggregatedTask) {
	if len(tasks) == 0 {
		Info("No tasks found.")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, a := range tasks {
		rows = append(rows, []string{
			a.QualifiedID(),
			a.Project,
			string(a.Task.Kind),
			truncate(a.Task.Title, maxTitleWidth),
			statusCell(a.Task.Status),
			string(a.Task.Priority),
			dueCell(a.Task.Due),
		})
	}
	fmt.Print(renderTable([]string{"ID", "Project", "Kind", "Title", "Status", "Priority", "Due"}, rows))
}

// PrintTaskDetail renders one task in full, including the description body.
func PrintTaskDetail(t *task.Task) {
	fmt.Printf("%s %s\n", styled(headerStyle, fmt.Sprintf("#%d", t.ID)), t.Title)
	fmt.Printf("  kind:     %s\n", t.Kind)
	fmt.Printf("  status:   %s\n", statusCell(t.Status))
	fmt.Printf("  priority: %s\n", t.Priority)
	if len(t.Tags) > 0 {
		fmt.Printf("  tags:     %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Due != nil {
		fmt.Printf("  due:      %s\n", t.Due)
	}
	fmt.Printf("  created:  %s\n", t.Created.Format("2006-01-02 15:04"))
	fmt.Printf("  updated:  %s\n", t.Updated.Format("2006-01-02 15:04"))
	if t.ClosedCommit != "" {
		fmt.Printf("  commit:   %s\n", t.ClosedCommit)
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
}

// PrintStats renders the per-status and per-kind tallies of a location.
func PrintStats(stats *storage.TaskStats) {
	fmt.Println(styled(headerStyle, "Task statistics"))
	fmt.Printf("  total:       %d\n", stats.Total)
	fmt.Printf("  pending:     %d\n", stats.Pending)
	fmt.Printf("  in-progress: %d\n", stats.InProgress)
	fmt.Printf("  completed:   %d\n", stats.Completed)
	fmt.Printf("  archived:    %d\n", stats.Archived)
	if stats.Overdue > 0 {
		fmt.Printf("  overdue:     %s\n", styled(errorStyle, strconv.Itoa(stats.Overdue)))
	} else {
		fmt.Printf("  overdue:     0\n")
	}
	fmt.Printf("  by kind:     %d task, %d todo, %d idea\n", stats.Tasks, stats.Todos, stats.Ideas)
}

// PrintProjects renders the registered projects with their task counts.
func PrintProjects(statuses []*storage.ProjectStatus) {
	if len(statuses) == 0 {
		Info("No projects linked.")
		return
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		switch {
		case !s.Exists:
			state = styled(errorStyle, "missing")
		case !s.HasTasksDir:
			state = styled(dimStyle, "no tasks dir")
		}
		rows = append(rows, []string{
			s.Name,
			s.Path,
			state,
			fmt.Sprintf("%d/%d", s.OpenTasks, s.TotalTasks),
		})
	}
	fmt.Print(renderTable([]string{"Project", "Path", "State", "Open/Total"}, rows))
}
