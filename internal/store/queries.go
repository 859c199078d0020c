package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const taskColumns = `task_id, user_id, title, description, priority, status, due_date, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteQueries implements Tx against either the pool or an open transaction.
type sqliteQueries struct {
	q           querier
	tx          *sql.Tx // set inside InTx
	stmtGetTask *sql.Stmt
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var (
		t       Task
		due     sql.NullString
		created int64
		updated int64
	)
	if err := r.Scan(&t.TaskID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Status, &due, &created, &updated); err != nil {
		return Task{}, err
	}
	if due.Valid {
		t.DueDate = ParseDueDate(due.String)
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return t, nil
}

func nullDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(DateLayout)
}

func (s *sqliteQueries) ListTasks(ctx context.Context, userID int64, f TaskFilter) ([]Task, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	var terms []string
	for _, term := range f.TitleTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms = append(terms, `LOWER(title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+EscapeLike(term)+"%")
	}
	if len(terms) > 0 {
		where = append(where, "("+strings.Join(terms, " OR ")+")")
	}
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY task_id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqliteQueries) GetTask(ctx context.Context, userID, taskID int64) (Task, error) {
	var row *sql.Row
	switch {
	case s.stmtGetTask != nil && s.tx != nil:
		row = s.tx.StmtContext(ctx, s.stmtGetTask).QueryRowContext(ctx, taskID, userID)
	case s.stmtGetTask != nil:
		row = s.stmtGetTask.QueryRowContext(ctx, taskID, userID)
	default:
		row = s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = ? AND user_id = ?`, taskID, userID)
	}
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return Task{}, err
	}
	return t, nil
}

func (s *sqliteQueries) CreateTask(ctx context.Context, nt NewTask) (Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return Task{}, errors.New("task title required")
	}
	if nt.Priority == "" {
		nt.Priority = "medium"
	}
	if nt.Status == "" {
		nt.Status = "todo"
	}
	now := time.Now().UTC().Unix()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO tasks(user_id, title, description, priority, status, due_date, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		nt.UserID, nt.Title, nt.Description, nt.Priority, nt.Status, nullDate(nt.DueDate), now, now)
	if err != nil {
		return Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, err
	}
	return Task{
		TaskID:      id,
		UserID:      nt.UserID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		DueDate:     nt.DueDate,
		CreatedAt:   time.Unix(now, 0).UTC(),
		UpdatedAt:   time.Unix(now, 0).UTC(),
	}, nil
}

func (s *sqliteQueries) UpdateTask(ctx context.Context, userID, taskID int64, u TaskUpdate) (Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Unix()}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *u.Priority)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	switch {
	case u.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case u.DueDate != nil:
		sets = append(sets, "due_date = ?")
		args = append(args, nullDate(u.DueDate))
	}
	args = append(args, taskID, userID)
	res, err := s.q.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE task_id = ? AND user_id = ?`, args...)
	if err != nil {
		return Task{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Task{}, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return s.GetTask(ctx, userID, taskID)
}

func (s *sqliteQueries) DeleteTask(ctx context.Context, userID, taskID int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) CreateUser(ctx context.Context, name, preferredMode string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, errors.New("user name required")
	}
	if preferredMode == "" {
		preferredMode = "act"
	}
	now := time.Now().UTC().Unix()
	res, err := s.DB.ExecContext(ctx, `INSERT INTO users(name, preferred_mode, created_at) VALUES(?, ?, ?)`, name, preferredMode, now)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{UserID: id, Name: name, PreferredMode: preferredMode, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

func (s *sqliteStore) GetUser(ctx context.Context, userID int64) (User, error) {
	var (
		u       User
		created int64
	)
	err := s.stmtGetUser.QueryRowContext(ctx, userID).Scan(&u.UserID, &u.Name, &u.PreferredMode, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

func (s *sqliteStore) SetPreferredMode(ctx context.Context, userID int64, mode string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET preferred_mode = ? WHERE user_id = ?`, mode, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) CountTasksByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
