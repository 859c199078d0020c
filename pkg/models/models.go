// Package models provides shared types for the tasktalk HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// User owns tasks and carries the preferred assistant mode.
type User struct {
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	PreferredMode string    `json:"preferred_mode"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Task is a to-do item owned by exactly one user. DueDate is formatted YYYY-MM-DD.
type Task struct {
	TaskID      int64     `json:"task_id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	DueDate     *string   `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// UIAction is one step of the UI-mirroring script emitted in ACT mode.
type UIAction struct {
	Type   string            `json:"type"` // navigate, click, fill_form, search
	Target string            `json:"target"`
	Query  string            `json:"query,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// Action is a structured event describing what a chat turn did.
type Action struct {
	Type      string     `json:"type"`
	TaskID    int64      `json:"task_id,omitempty"`
	Tasks     []Task     `json:"tasks,omitempty"`
	UIActions []UIAction `json:"uiActions,omitempty"`
}

// ChatRequest is the POST /users/{id}/chat body. AssistantMode overrides the user's preference.
type ChatRequest struct {
	Message       string `json:"message"`
	AssistantMode string `json:"assistant_mode,omitempty"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	Response  string     `json:"response"`
	Actions   []Action   `json:"actions"`
	UIActions []UIAction `json:"uiActions"`
}

// AssistantModeSetting is the body of GET/POST /users/{id}/settings/assistant-mode.
type AssistantModeSetting struct {
	AssistantMode string `json:"assistant_mode"`
}

// TaskInput is the body for creating or updating a task over REST. Nil fields are left unchanged on update.
type TaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}
