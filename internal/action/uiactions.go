package action

import (
	"strconv"

	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/pkg/models"
)

// ScriptInput is what the UI script needs to mirror one executed intent.
type ScriptInput struct {
	TaskID      int64
	TaskTitle   string
	NewTitle    string
	Priority    string
	Description string
	Status      string // task_list filter
}

func nav() models.UIAction { return models.UIAction{Type: "navigate", Target: "task_section"} }

func click(target string) models.UIAction { return models.UIAction{Type: "click", Target: target} }

func search(query string) models.UIAction {
	return models.UIAction{Type: "search", Target: "task_search", Query: query}
}

// UIScript returns the clicks a user would make in the web UI to perform k.
// With a TaskID the script targets that task's buttons; without one it searches by title.
func UIScript(k intent.Kind, in ScriptInput) []models.UIAction {
	id := ""
	if in.TaskID > 0 {
		id = strconv.FormatInt(in.TaskID, 10)
	}
	switch k {
	case intent.TaskList:
		out := []models.UIAction{nav()}
		switch in.Status {
		case models.StatusDone:
			out = append(out, click("completed_tasks_filter"))
		case "", models.StatusTodo:
			out = append(out, click("active_tasks_filter"))
		case "all":
			out = append(out, click("all_tasks_filter"))
		}
		return out
	case intent.TaskCreate:
		return []models.UIAction{
			nav(),
			click("add_task_form"),
			{Type: "fill_form", Target: "add_task_form", Data: map[string]string{
				"title":       in.NewTitle,
				"priority":    in.Priority,
				"description": in.Description,
			}},
			click("add_task_button"),
		}
	case intent.TaskUpdate:
		data := map[string]string{"title": in.NewTitle, "priority": in.Priority, "description": in.Description}
		if id != "" {
			return []models.UIAction{
				nav(),
				click("edit_task_button_" + id),
				{Type: "fill_form", Target: "edit_task_form_" + id, Data: data},
				click("save_task_button_" + id),
			}
		}
		return []models.UIAction{
			nav(),
			search(in.TaskTitle),
			click("edit_first_matching_task"),
			{Type: "fill_form", Target: "edit_task_form", Data: data},
			click("save_task_button"),
		}
	case intent.TaskComplete:
		if id != "" {
			return []models.UIAction{nav(), click("complete_task_button_" + id)}
		}
		return []models.UIAction{nav(), search(in.TaskTitle), click("complete_first_matching_task")}
	case intent.TaskReopen:
		out := []models.UIAction{nav(), click("completed_tasks_filter")}
		if id != "" {
			return append(out, click("reopen_task_button_"+id))
		}
		return append(out, search(in.TaskTitle), click("reopen_first_matching_task"))
	case intent.TaskDelete:
		if id != "" {
			return []models.UIAction{nav(), click("delete_task_button_" + id), click("confirm_delete_button")}
		}
		return []models.UIAction{nav(), search(in.TaskTitle), click("delete_first_matching_task"), click("confirm_delete_button")}
	case intent.Conversation:
		return nil
	}
	return nil
}
