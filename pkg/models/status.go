package models

import "strings"

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusArchived   = "archived"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Assistant modes. PLAN executes through the API only; ACT also returns a UI action script.
const (
	ModePlan = "plan"
	ModeAct  = "act"
)

// Action event types returned in ChatResponse.Actions.
const (
	ActionTaskAdded   = "task_added"
	ActionTaskUpdated = "task_updated"
	ActionTaskDeleted = "task_deleted"
	ActionTasksListed = "tasks_listed"
	ActionUIActions   = "ui_actions"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultTaskListLimit       = 1000
	DefaultSSEChannelBuffer    = 256
	DefaultHistoryRetained     = 20
	DefaultHistoryPrompted     = 5
	DefaultSessionCapacity     = 4096
)

// NormalizePriority lowercases p and reports whether it is one of the known priorities.
func NormalizePriority(p string) (string, bool) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, true
	}
	return p, false
}

// NormalizeStatus lowercases s ("In Progress" and "in-progress" become "in_progress")
// and reports whether it is one of the known statuses.
func NormalizeStatus(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return s, true
	}
	return s, false
}

// NormalizeMode lowercases m and reports whether it is plan or act.
func NormalizeMode(m string) (string, bool) {
	m = strings.ToLower(strings.TrimSpace(m))
	switch m {
	case ModePlan, ModeAct:
		return m, true
	}
	return m, false
}
