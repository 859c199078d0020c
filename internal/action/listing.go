package action

import (
	"fmt"
	"strings"

	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/ankittk/tasktalk/pkg/models"
)

// ListStatus maps the status words people use to a stored status. Unknown words report false.
func ListStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to do", "active", "pending", "open", "incomplete":
		return models.StatusTodo, true
	case "done", "complete", "completed", "finished":
		return models.StatusDone, true
	case "in_progress", "in progress", "in-progress", "ongoing", "started":
		return models.StatusInProgress, true
	case "archived":
		return models.StatusArchived, true
	}
	return "", false
}

// SearchTerms splits a free-text query into title search words, dropping stop words.
// When nothing meaningful is left the whole query is used as one term.
func SearchTerms(query string, t *heuristics.Tables) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var terms []string
	for _, w := range strings.Fields(q) {
		if !t.IsStopWord(w) {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return []string{q}
	}
	return terms
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatItem(t store.Task, markDone bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• **Task %d:** %s", t.TaskID, t.Title)
	if markDone && t.Status == models.StatusDone {
		b.WriteString(" (Completed)")
	}
	fmt.Fprintf(&b, "\n  **Priority:** %s", capitalize(t.Priority))
	if d := t.DueDateString(); d != "" {
		b.WriteString(", due " + d)
	}
	return b.String()
}

func formatItems(tasks []store.Task, markDone bool) string {
	items := make([]string, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, formatItem(t, markDone))
	}
	return strings.Join(items, "\n\n")
}

func section(header string, tasks []store.Task, empty string) string {
	if len(tasks) == 0 {
		return header + "\n\n" + empty
	}
	return header + "\n\n" + formatItems(tasks, false)
}

// FormatListing renders tasks as markdown. A search gets one result block; otherwise
// tasks are split into active and completed sections, narrowed to one section when
// status filters to it.
func FormatListing(tasks []store.Task, status, query string) string {
	if strings.TrimSpace(query) != "" {
		header := fmt.Sprintf("### 🔍 Search Results for '%s':", query)
		if len(tasks) == 0 {
			return header + fmt.Sprintf("\n\nNo tasks found matching '%s'.", query)
		}
		return header + "\n\n" + formatItems(tasks, true)
	}

	var active, done, archived []store.Task
	for _, t := range tasks {
		switch t.Status {
		case models.StatusDone:
			done = append(done, t)
		case models.StatusArchived:
			archived = append(archived, t)
		default:
			active = append(active, t)
		}
	}
	activeSec := section("### 📋 Your Active Tasks:", active, "No active tasks at the moment.")
	doneSec := section("### ✅ Your Completed Tasks:", done, "No completed tasks yet.")
	switch status {
	case models.StatusTodo, models.StatusInProgress:
		return activeSec
	case models.StatusDone:
		return doneSec
	case models.StatusArchived:
		return section("### 🗄️ Your Archived Tasks:", archived, "No archived tasks.")
	}
	out := activeSec + "\n\n\n" + doneSec
	if len(archived) > 0 {
		out += "\n\n\n" + section("### 🗄️ Your Archived Tasks:", archived, "")
	}
	return out
}
