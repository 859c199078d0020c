package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ankittk/tasktalk/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const taskColumns = `task_id, user_id, title, description, priority, status, due_date, created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	q querier
}

func scanTask(r pgx.Row) (store.Task, error) {
	var (
		t       store.Task
		due     *time.Time
		created int64
		updated int64
	)
	if err := r.Scan(&t.TaskID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Status, &due, &created, &updated); err != nil {
		return store.Task{}, err
	}
	if due != nil {
		d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		t.DueDate = &d
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return t, nil
}

// args builds positional placeholders ($1, $2, ...) as values are appended.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func (s *queries) ListTasks(ctx context.Context, userID int64, f store.TaskFilter) ([]store.Task, error) {
	var a args
	where := []string{"user_id = " + a.add(userID)}
	if f.Status != "" {
		where = append(where, "status = "+a.add(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "priority = "+a.add(f.Priority))
	}
	var terms []string
	for _, term := range f.TitleTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms = append(terms, `title ILIKE `+a.add("%"+store.EscapeLike(term)+"%")+` ESCAPE '\'`)
	}
	if len(terms) > 0 {
		where = append(where, "("+strings.Join(terms, " OR ")+")")
	}
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY task_id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ` + a.add(f.Limit)
	}
	rows, err := s.q.Query(ctx, q, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *queries) GetTask(ctx context.Context, userID, taskID int64) (store.Task, error) {
	t, err := scanTask(s.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = $1 AND user_id = $2`, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Task{}, fmt.Errorf("task %d: %w", taskID, store.ErrNotFound)
		}
		return store.Task{}, err
	}
	return t, nil
}

func (s *queries) CreateTask(ctx context.Context, nt store.NewTask) (store.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return store.Task{}, errors.New("task title required")
	}
	if nt.Priority == "" {
		nt.Priority = "medium"
	}
	if nt.Status == "" {
		nt.Status = "todo"
	}
	now := time.Now().UTC().Unix()
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO tasks(user_id, title, description, priority, status, due_date, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING task_id`,
		nt.UserID, nt.Title, nt.Description, nt.Priority, nt.Status, nt.DueDate, now, now).Scan(&id)
	if err != nil {
		return store.Task{}, err
	}
	return store.Task{
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

func (s *queries) UpdateTask(ctx context.Context, userID, taskID int64, u store.TaskUpdate) (store.Task, error) {
	var a args
	sets := []string{"updated_at = " + a.add(time.Now().UTC().Unix())}
	if u.Title != nil {
		sets = append(sets, "title = "+a.add(*u.Title))
	}
	if u.Description != nil {
		sets = append(sets, "description = "+a.add(*u.Description))
	}
	if u.Priority != nil {
		sets = append(sets, "priority = "+a.add(*u.Priority))
	}
	if u.Status != nil {
		sets = append(sets, "status = "+a.add(*u.Status))
	}
	switch {
	case u.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case u.DueDate != nil:
		sets = append(sets, "due_date = "+a.add(*u.DueDate))
	}
	q := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE task_id = ` + a.add(taskID) + ` AND user_id = ` + a.add(userID) + ` RETURNING ` + taskColumns
	t, err := scanTask(s.q.QueryRow(ctx, q, a...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Task{}, fmt.Errorf("task %d: %w", taskID, store.ErrNotFound)
		}
		return store.Task{}, err
	}
	return t, nil
}

func (s *queries) DeleteTask(ctx context.Context, userID, taskID int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM tasks WHERE task_id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", taskID, store.ErrNotFound)
	}
	return nil
}
