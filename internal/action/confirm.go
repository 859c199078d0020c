package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/ankittk/tasktalk/internal/store"
)

// Change is one field written by task_update, in the order it was applied.
type Change struct {
	Field string
	Value string
}

// Outcome is the deterministic result of an executed intent. Confirmations are
// built from these fields only.
type Outcome struct {
	Kind    intent.Kind
	Task    store.Task // the created, updated or deleted task
	Changes []Change   // task_update
	// DateFeedback explains a due date that could not be understood; the task was
	// written without it.
	DateFeedback string

	Tasks   []store.Task // task_list
	Status  string
	Query   string
	Listing string
}

// Summarizer writes a human confirmation for an outcome.
type Summarizer interface {
	Summarize(ctx context.Context, o Outcome) (string, error)
}

// LLMSummarizer asks the hosted model for a friendly confirmation.
type LLMSummarizer struct {
	Model llm.Completer
}

func (s LLMSummarizer) Summarize(ctx context.Context, o Outcome) (string, error) {
	if s.Model == nil {
		return "", fmt.Errorf("summarizer: no model configured")
	}
	out, err := s.Model.Complete(ctx, summaryPrompt(o))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func summaryPrompt(o Outcome) string {
	var b strings.Builder
	switch o.Kind {
	case intent.TaskCreate:
		b.WriteString("Generate a brief, friendly confirmation message for creating a new task.\n")
		fmt.Fprintf(&b, "Title: %s\nPriority: %s\n", o.Task.Title, o.Task.Priority)
		if d := o.Task.DueDateString(); d != "" {
			fmt.Fprintf(&b, "Due Date: %s\n", d)
		}
		b.WriteString("Confirm the task was created. Don't include database IDs.\n")
	case intent.TaskUpdate:
		b.WriteString("Generate a brief, friendly confirmation message for updating a task.\n")
		fmt.Fprintf(&b, "Task Title: %s\nUpdates: %s\n", o.Task.Title, formatChanges(o.Changes))
		b.WriteString("Focus on what changed and include the task title.\n")
	case intent.TaskDelete:
		b.WriteString("Generate a brief, friendly confirmation message for deleting a task.\n")
		fmt.Fprintf(&b, "Task Title: %s\n", o.Task.Title)
	case intent.TaskComplete:
		b.WriteString("Generate a brief, encouraging confirmation message for completing a task.\n")
		fmt.Fprintf(&b, "Task Title: %s\n", o.Task.Title)
	case intent.TaskReopen:
		b.WriteString("Generate a brief, friendly confirmation message for reopening a completed task.\n")
		fmt.Fprintf(&b, "Task Title: %s\n", o.Task.Title)
	}
	b.WriteString("Reply with one or two sentences of plain text, no JSON.")
	return b.String()
}

func formatChanges(cs []Change) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.Field+": "+c.Value)
	}
	return strings.Join(parts, ", ")
}

// Fallback is the fixed confirmation for an outcome, used for listings and whenever
// the summarizer is unavailable.
func Fallback(o Outcome) string {
	switch o.Kind {
	case intent.TaskCreate:
		return fmt.Sprintf("Great! I've created your task \"%s\" with %s priority.", o.Task.Title, o.Task.Priority)
	case intent.TaskUpdate:
		if len(o.Changes) == 0 {
			return fmt.Sprintf("I couldn't change the due date of \"%s\".", o.Task.Title)
		}
		return "I've updated your task with the new information: " + formatChanges(o.Changes) + "."
	case intent.TaskDelete:
		return fmt.Sprintf("I've deleted the task \"%s\" as requested.", o.Task.Title)
	case intent.TaskList:
		n := len(o.Tasks)
		if n == 1 {
			return "Here is your 1 task:\n" + o.Listing
		}
		return fmt.Sprintf("Here are your %d tasks:\n", n) + o.Listing
	case intent.TaskComplete:
		return fmt.Sprintf("Great job! I've marked the task \"%s\" as complete.", o.Task.Title)
	case intent.TaskReopen:
		return fmt.Sprintf("I've reopened the task \"%s\" and moved it back to your active tasks.", o.Task.Title)
	}
	return "I've completed the requested action successfully."
}

// withDateNote appends the due-date guidance so it reaches the user whichever way
// the confirmation was written.
func withDateNote(text string, o Outcome) string {
	if o.DateFeedback == "" || strings.Contains(text, o.DateFeedback) {
		return text
	}
	return text + "\n\nNote about due date: " + o.DateFeedback
}
