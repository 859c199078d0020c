package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankittk/tasktalk/internal/action"
	"github.com/ankittk/tasktalk/internal/intent"
)

// GenericFailure is the reply for any failure without a more specific message.
const GenericFailure = "I'm sorry, I encountered an issue while processing your request. Could you please try again or rephrase your request?"

// maxCandidates bounds how many ambiguous matches are listed back.
const maxCandidates = 5

// Translate maps an executor failure to the fixed sentence shown to the user.
// Error text itself never reaches the user.
func Translate(err error) string {
	var (
		nf  *action.EntityNotFoundError
		amb *action.AmbiguousEntityError
		inv *action.InvalidRequestError
	)
	switch {
	case errors.As(err, &nf):
		return notFound(nf)
	case errors.As(err, &amb):
		return ambiguous(amb)
	case errors.As(err, &inv):
		return invalid(inv)
	}
	return GenericFailure
}

func notFound(e *action.EntityNotFoundError) string {
	if e.ID != "" {
		return fmt.Sprintf("I couldn't find a task with ID %s. Please check the ID and try again.", e.ID)
	}
	var verb string
	switch e.Kind {
	case intent.TaskComplete:
		verb = "mark that task as complete"
	case intent.TaskUpdate:
		verb = "update that task"
	case intent.TaskDelete:
		verb = "delete that task"
	case intent.TaskReopen:
		verb = "reopen that task"
	default:
		return fmt.Sprintf("I couldn't find a task matching '%s'. Please check the task name or create this task first.", e.Title)
	}
	return fmt.Sprintf("I couldn't %s because I couldn't find any task matching '%s'. Please check the task name or view your tasks to see what's available.", verb, e.Title)
}

func ambiguous(e *action.AmbiguousEntityError) string {
	var b strings.Builder
	b.WriteString("I found multiple tasks that match your request. Could you please specify which one you'd like to work with?")
	for i, c := range e.Candidates {
		if i == maxCandidates {
			break
		}
		fmt.Fprintf(&b, "\n- Task %d (Title: '%s', Priority: %s)", c.Task.TaskID, c.Task.Title, c.Task.Priority)
	}
	b.WriteString("\nPlease reply with the task ID.")
	return b.String()
}

func invalid(e *action.InvalidRequestError) string {
	switch e.Reason {
	case action.MissingTaskRef:
		return "I need to know which task you're referring to. Please specify the task title or ID."
	case action.MissingTitle:
		return "What would you like to call the new task? Please give me a title."
	case action.NothingToChange:
		return fmt.Sprintf("I found the task \"%s\", but I'm not sure what you'd like to change. Could you tell me the new title, priority, status or due date?", e.Title)
	}
	return GenericFailure
}
