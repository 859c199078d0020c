package dialogue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ankittk/tasktalk/internal/action"
	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/resolve"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found by id", &action.EntityNotFoundError{Kind: intent.TaskDelete, ID: "999"},
			"I couldn't find a task with ID 999. Please check the ID and try again."},
		{"complete by title", &action.EntityNotFoundError{Kind: intent.TaskComplete, Title: "laundry"},
			"I couldn't mark that task as complete because I couldn't find any task matching 'laundry'. Please check the task name or view your tasks to see what's available."},
		{"delete by title", &action.EntityNotFoundError{Kind: intent.TaskDelete, Title: "laundry"},
			"I couldn't delete that task because I couldn't find any task matching 'laundry'. Please check the task name or view your tasks to see what's available."},
		{"wrapped", fmt.Errorf("turn: %w", &action.EntityNotFoundError{Kind: intent.TaskUpdate, ID: "3"}),
			"I couldn't find a task with ID 3. Please check the ID and try again."},
		{"missing ref", &action.InvalidRequestError{Kind: intent.TaskDelete, Reason: action.MissingTaskRef},
			"I need to know which task you're referring to. Please specify the task title or ID."},
		{"storage", &action.StorageError{Op: "list", Err: errors.New("SQL logic error")}, GenericFailure},
		{"plain", errors.New("boom"), GenericFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(tt.err))
		})
	}
}

func TestTranslateAmbiguousListsAtMostFive(t *testing.T) {
	var cands []resolve.Candidate
	for i := 1; i <= 7; i++ {
		cands = append(cands, resolve.Candidate{Task: store.Task{TaskID: int64(i), Title: fmt.Sprintf("Buy thing %d", i), Priority: "medium"}})
	}
	got := Translate(&action.AmbiguousEntityError{Kind: intent.TaskComplete, Query: "buy", Candidates: cands})
	assert.True(t, strings.HasPrefix(got, "I found multiple tasks that match your request."))
	assert.Contains(t, got, "\n- Task 1 (Title: 'Buy thing 1', Priority: medium)")
	assert.Contains(t, got, "\n- Task 5 (Title: 'Buy thing 5', Priority: medium)")
	assert.NotContains(t, got, "Task 6")
	assert.Equal(t, 5, strings.Count(got, "\n- Task "))
}

func TestMerge(t *testing.T) {
	openers := []string{"OK.", "I'll", "I've"}
	conf := `I've deleted the task "Dentist" as requested.`
	tests := []struct {
		name  string
		kind  intent.Kind
		reply string
		want  string
	}{
		{"stock opener", intent.TaskDelete, "I'll delete that for you.", conf},
		{"already contains", intent.TaskDelete, "Done. " + conf, conf},
		{"empty reply", intent.TaskDelete, "  ", conf},
		{"concatenate", intent.TaskDelete, "Sure.", "Sure. " + conf},
		{"list prefers confirmation", intent.TaskList, "Here are your tasks.", conf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.kind, tt.reply, conf, openers))
		})
	}
	assert.Equal(t, "hello", Merge(intent.TaskCreate, "hello", "", openers))
}
