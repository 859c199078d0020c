package intent

import (
	"strings"

	"github.com/ankittk/tasktalk/pkg/models"
)

// Turn is one completed user/assistant exchange.
type Turn struct {
	User      string
	Assistant string
}

// FormatHistory renders the last n turns as "User:"/"Assistant:" lines.
func FormatHistory(history []Turn, n int) string {
	if len(history) == 0 {
		return "No previous conversation."
	}
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User: ")
		b.WriteString(t.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Assistant)
	}
	return b.String()
}

const instructions = `Analyze the user's message and respond with a JSON object containing:
1. "intent": one of ["task_create", "task_update", "task_delete", "task_list", "task_complete", "task_reopen", "conversation"]
2. "parameters": an object with the parameters for the action
3. "response": a natural language response to the user

Parameters per intent:
- task_create: "title", optionally "priority" (urgent, high, medium, low), "description" and "due_date".
- task_update: "task_id" or "task_title" to pick the task, plus the fields to change: "new_title", "description", "priority", "status", "due_date".
- task_delete, task_complete, task_reopen: "task_id" or "task_title".
- task_list: optional "status", "priority" and "query" (search words for the title).
When the user asks for active, pending or incomplete tasks use task_list with "status": "todo".
When the user asks about tasks on a topic, use task_list with a "query" and do not claim which tasks exist.

If the user asks about the app itself (what priority means, how to use it, what it can do), use "conversation" and answer from the documentation above.
If the user asks for something outside task management (email, calls, web access, files, calendar), use "conversation" and explain that the app cannot do it.
General knowledge questions may be answered from what you know, with intent "conversation".

Match task titles flexibly: ignore capitalization and word order, and put the closest title you can find in "task_title".
If the task id is known from the conversation, include it as "task_id".

Never say an action already happened. Write "I'll mark that task as complete" rather than "I've marked it". The system confirms what actually happened.

When you need more information, keep the task intent, ask an explicit question and end it with "?".
For example, "change the priority of my homework task" without a new priority should get:
"I'll update your homework task. What priority would you like to set it to (urgent, high, medium or low)?"

Respond ONLY with a valid JSON object.`

// BuildPrompt assembles the extraction prompt for message, quoting relevant documentation
// when the user asks about the app.
func BuildPrompt(message string, history []Turn, docs *Docs) string {
	var section string
	if docs != nil {
		if names := docs.Relevant(message); len(names) > 0 {
			section = "# Relevant App Documentation\n" + docs.Render(names)
		} else if docs.IsGeneralKnowledge(message) {
			section = "# Note\nThe user is asking a general knowledge question. Use your built-in knowledge to provide a helpful, informative response."
		}
	}
	if section == "" {
		section = "# Note\nThe user appears to be asking about task management rather than general app information."
	}

	var b strings.Builder
	b.WriteString("You are an assistant for a to-do application. The user has said: \"")
	b.WriteString(message)
	b.WriteString("\"\n\nDecide what they want to do with their tasks, or whether they are just talking.\n\nPrevious conversation:\n")
	b.WriteString(FormatHistory(history, models.DefaultHistoryPrompted))
	b.WriteString("\n\n")
	b.WriteString(section)
	b.WriteString("\n\n")
	b.WriteString(instructions)
	b.WriteByte('\n')
	return b.String()
}
