// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskmagic/internal/service"
	"taskmagic/internal/tasklist"
)

const (
	// ListSeparator separates the task lines from the stats footer.
	ListSeparator = "------------"
)

// descriptionIndent lines a description up under its task's title.
const descriptionIndent = "          "

// FormatTask formats a task line, plus a description line when there is one.
// Format: "{N:>4}  [{MARK}] {TITLE}  ({PRIORITY}, {HOURS}h)\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %s  (%s, %sh)\n",
		num, statusMark(task.Status), normalizeTitle(task.Title), task.Priority, formatHours(task.EstimatedHours))
	formatDescription(w, task.Description)
}

// FormatTaskWithID is FormatTask with the server id at the end of the first line.
func FormatTaskWithID(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %s  (%s, %sh)  %s\n",
		num, statusMark(task.Status), normalizeTitle(task.Title), task.Priority, formatHours(task.EstimatedHours), task.ID)
	formatDescription(w, task.Description)
}

func formatDescription(w io.Writer, desc string) {
	desc = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(desc))
	if desc == "" {
		return
	}
	fmt.Fprintf(w, "%s%s\n", descriptionIndent, desc)
}

// FormatStats formats the derived counts on one line.
func FormatStats(w io.Writer, st tasklist.Stats) {
	fmt.Fprintf(w, "active %d  completed %d  high priority %d\n", st.Active, st.Completed, st.High)
}

// FormatList prints numbered tasks, a separator and the stats footer.
func FormatList(w io.Writer, tasks []service.Task, withIDs bool) {
	for i, t := range tasks {
		if withIDs {
			FormatTaskWithID(w, i+1, t)
		} else {
			FormatTask(w, i+1, t)
		}
	}
	fmt.Fprintln(w, ListSeparator)
	FormatStats(w, tasklist.Count(tasks))
}

// statusMark renders a status as a checkbox.
func statusMark(s service.Status) string {
	switch s {
	case service.StatusDone:
		return "x"
	case service.StatusInProgress:
		return "~"
	case service.StatusTodo:
		return " "
	default:
		return "?"
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
