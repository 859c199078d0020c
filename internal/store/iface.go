package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user or task does not exist for the requesting user.
var ErrNotFound = errors.New("not found")

// Tx holds the task operations. Every call is scoped to one user id; a task belonging
// to another user is reported as ErrNotFound.
type Tx interface {
	ListTasks(ctx context.Context, userID int64, f TaskFilter) ([]Task, error)
	GetTask(ctx context.Context, userID, taskID int64) (Task, error)
	CreateTask(ctx context.Context, t NewTask) (Task, error)
	UpdateTask(ctx context.Context, userID, taskID int64, u TaskUpdate) (Task, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
}

// Store is the persistence interface for users and tasks.
// Implementations: the SQLite store in this package and *postgres.Store (PostgreSQL).
type Store interface {
	Tx

	// Users
	CreateUser(ctx context.Context, name, preferredMode string) (User, error)
	GetUser(ctx context.Context, userID int64) (User, error)
	SetPreferredMode(ctx context.Context, userID int64, mode string) error

	// InTx runs fn in one transaction: committed when fn returns nil, rolled back otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error

	// CountTasksByStatus returns task counts across all users, keyed by status.
	CountTasksByStatus(ctx context.Context) (map[string]int64, error)

	Close() error
}

// EscapeLike escapes LIKE wildcards in s using backslash as the escape character.
func EscapeLike(s string) string {
	r := []rune{}
	for _, c := range s {
		if c == '\\' || c == '%' || c == '_' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}
