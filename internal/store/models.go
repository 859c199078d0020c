// Package store defines the persistence interface and shared models for users and their tasks.
package store

import (
	"time"

	"github.com/ankittk/tasktalk/pkg/models"
)

// DateLayout is how due dates are stored and rendered.
const DateLayout = "2006-01-02"

// User owns tasks. PreferredMode is "plan" or "act".
type User struct {
	UserID        int64
	Name          string
	PreferredMode string
	CreatedAt     time.Time
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	TaskID      int64
	UserID      int64
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time // calendar date, midnight UTC
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask is the input to CreateTask. Empty Priority/Status take the column defaults.
type NewTask struct {
	UserID      int64
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
}

// TaskUpdate lists the fields to change; nil fields are left as they are.
// ClearDueDate removes the due date and wins over DueDate.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Priority     *string
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Status == nil && u.DueDate == nil && !u.ClearDueDate
}

// TaskFilter narrows ListTasks. TitleTerms match case-insensitively as substrings, OR-ed together.
type TaskFilter struct {
	Status     string
	Priority   string
	TitleTerms []string
	Limit      int
}

// DueDateString returns the due date as YYYY-MM-DD, or "" when unset.
func (t Task) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// Model converts t to its API representation.
func (t Task) Model() models.Task {
	m := models.Task{
		TaskID:      t.TaskID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if s := t.DueDateString(); s != "" {
		m.DueDate = &s
	}
	return m
}

// Model converts u to its API representation.
func (u User) Model() models.User {
	return models.User{UserID: u.UserID, Name: u.Name, PreferredMode: u.PreferredMode, CreatedAt: u.CreatedAt}
}

// ParseDueDate parses a stored YYYY-MM-DD value; empty or invalid input yields nil.
func ParseDueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &d
}
