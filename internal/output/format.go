// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskctl/internal/app"
	"taskctl/internal/service"
)

const (
	// ListSeparator is the separator line for sections.
	ListSeparator = "------------"

	// DateLayout renders timestamps as "May 1, 2024, 09:01 AM".
	DateLayout = "Jan 2, 2006, 03:04 PM"
)

// FormatTaskList writes the task table: a "Tasks (N)" header followed by one
// line per task, or "no tasks found" when empty (suppressed when quiet).
func FormatTaskList(w io.Writer, tasks []service.Task, quiet bool) {
	if len(tasks) == 0 {
		if !quiet {
			fmt.Fprintln(w, "no tasks found")
		}
		return
	}
	fmt.Fprintf(w, "Tasks (%d)\n", len(tasks))
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// FormatTask formats one task line.
// Format: "{ID:>6}  {STATUS:<11}  {PRIORITY:<6}  {TITLE}\n"
func FormatTask(w io.Writer, t service.Task) {
	fmt.Fprintf(w, "%6s  %-11s  %-6s  %s\n", t.ID, t.Status.Label(), t.Priority, normalizeTitle(t.Title))
}

// FormatTaskDetail writes every field of a task. The updated time is shown
// only when it differs from the created time.
func FormatTaskDetail(w io.Writer, t service.Task) {
	fmt.Fprintln(w, normalizeTitle(t.Title))
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "ID:        %s\n", t.ID)
	fmt.Fprintf(w, "Status:    %s\n", t.Status.Label())
	fmt.Fprintf(w, "Priority:  %s\n", t.Priority)
	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintf(w, "Details:   %s\n", t.Description)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:   %s\n", formatDate(t.CreatedAt.Time))
	}
	if !t.UpdatedAt.IsZero() && !t.UpdatedAt.Equal(t.CreatedAt.Time) {
		fmt.Fprintf(w, "Updated:   %s\n", formatDate(t.UpdatedAt.Time))
	}
}

// FormatFilter writes the active filter and the query it resolves to.
// Nothing is written when no filter is set.
func FormatFilter(w io.Writer, f app.Filter) {
	if !f.Active() {
		return
	}
	fmt.Fprintf(w, "filter: status=%s priority=%s search=%q (by %s)\n",
		orDash(string(f.Status)), orDash(string(f.Priority)), f.Search, f.Query().Kind)
}

// FormatError writes the error banner.
func FormatError(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "! %s (dismiss to clear)\n", msg)
}

// FormatForm writes the draft and whether it will create or update.
func FormatForm(w io.Writer, d service.Draft, editing *service.Task) {
	if editing != nil {
		fmt.Fprintf(w, "Edit task %s\n", editing.ID)
	} else {
		fmt.Fprintln(w, "New task")
	}
	fmt.Fprintf(w, "  title:       %s\n", d.Title)
	fmt.Fprintf(w, "  description: %s\n", d.Description)
	fmt.Fprintf(w, "  status:      %s\n", d.Status)
	fmt.Fprintf(w, "  priority:    %s\n", d.Priority)
}

// FormatView writes the error banner, the filter and the task list (or the
// loading line) for a controller state.
func FormatView(w io.Writer, st app.State) {
	FormatError(w, st.Err)
	FormatFilter(w, st.Filter)
	if st.Loading {
		fmt.Fprintln(w, "loading tasks...")
		return
	}
	FormatTaskList(w, st.Tasks, false)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
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
