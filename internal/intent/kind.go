// Package intent turns hosted-model output into a typed intent and builds the extraction prompt.
package intent

import "strings"

// Kind is the closed set of intents a turn can carry.
type Kind int

const (
	Conversation Kind = iota
	TaskCreate
	TaskUpdate
	TaskDelete
	TaskList
	TaskComplete
	TaskReopen
)

var kindNames = [...]string{
	Conversation: "conversation",
	TaskCreate:   "task_create",
	TaskUpdate:   "task_update",
	TaskDelete:   "task_delete",
	TaskList:     "task_list",
	TaskComplete: "task_complete",
	TaskReopen:   "task_reopen",
}

// Kinds lists every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{Conversation, TaskCreate, TaskUpdate, TaskDelete, TaskList, TaskComplete, TaskReopen}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a wire name to a Kind. Unknown names report false.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return Conversation, false
}

// NeedsTaskRef reports whether the intent acts on one existing task.
func (k Kind) NeedsTaskRef() bool {
	switch k {
	case TaskUpdate, TaskDelete, TaskComplete, TaskReopen:
		return true
	}
	return false
}

// Mutating reports whether executing the intent changes stored tasks.
func (k Kind) Mutating() bool {
	return k == TaskCreate || k.NeedsTaskRef()
}
