// Package action executes a resolved intent against the task store and reports what happened.
package action

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ankittk/tasktalk/internal/dateparse"
	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/otel"
	"github.com/ankittk/tasktalk/internal/resolve"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/ankittk/tasktalk/pkg/models"
)

// Request is one intent to run for one user.
type Request struct {
	UserID int64
	Intent intent.Resolved
	Mode   string // models.ModePlan or models.ModeAct
}

// Result is what the caller shows the user. UIActions is set only in ACT mode.
type Result struct {
	Confirmation string
	Actions      []models.Action
	UIActions    []models.UIAction
	Outcome      Outcome
}

// Executor runs intents. Each intent resolves and mutates inside one store transaction;
// the confirmation is written after commit.
type Executor struct {
	store      store.Store
	tables     *heuristics.Tables
	dates      *dateparse.Parser
	resolver   *resolve.Resolver
	summarizer Summarizer
	logger     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithSummarizer sets the confirmation writer. Without one, templates are used.
func WithSummarizer(s Summarizer) Option { return func(e *Executor) { e.summarizer = s } }

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithDateParser replaces the due-date parser, e.g. to pin "today".
func WithDateParser(p *dateparse.Parser) Option { return func(e *Executor) { e.dates = p } }

// New returns an Executor over st. A nil tables uses the embedded defaults.
func New(st store.Store, tables *heuristics.Tables, opts ...Option) *Executor {
	if tables == nil {
		tables = heuristics.Default()
	}
	e := &Executor{
		store:    st,
		tables:   tables,
		dates:    dateparse.New(tables),
		resolver: resolve.New(tables),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs req. Conversation intents do nothing. Failures are one of
// *EntityNotFoundError, *AmbiguousEntityError, *InvalidRequestError or *StorageError.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	k := req.Intent.Kind
	var run func(context.Context, store.Tx, Request) (Outcome, error)
	switch k {
	case intent.Conversation:
		return Result{}, nil
	case intent.TaskCreate:
		run = e.create
	case intent.TaskUpdate:
		run = e.update
	case intent.TaskDelete:
		run = e.delete
	case intent.TaskList:
		run = e.list
	case intent.TaskComplete:
		run = e.setStatus(models.StatusDone)
	case intent.TaskReopen:
		run = e.setStatus(models.StatusTodo)
	default:
		return Result{}, &InvalidRequestError{Kind: k}
	}

	var out Outcome
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = run(ctx, tx, req)
		return err
	})
	if err != nil {
		err = asTyped(k, err)
		otel.RecordTaskOp(ctx, k.String(), "error")
		return Result{}, err
	}
	otel.RecordTaskOp(ctx, k.String(), "ok")
	out.Kind = k

	res := Result{Outcome: out, Confirmation: e.confirm(ctx, out)}
	if k == intent.TaskUpdate && len(out.Changes) == 0 {
		// Only an unusable due date was given: nothing was written.
		return res, nil
	}
	switch k {
	case intent.TaskCreate:
		res.Actions = []models.Action{{Type: models.ActionTaskAdded, TaskID: out.Task.TaskID}}
	case intent.TaskUpdate, intent.TaskComplete, intent.TaskReopen:
		res.Actions = []models.Action{{Type: models.ActionTaskUpdated, TaskID: out.Task.TaskID}}
	case intent.TaskDelete:
		res.Actions = []models.Action{{Type: models.ActionTaskDeleted, TaskID: out.Task.TaskID}}
	case intent.TaskList:
		tasks := make([]models.Task, 0, len(out.Tasks))
		for _, t := range out.Tasks {
			tasks = append(tasks, t.Model())
		}
		res.Actions = []models.Action{{Type: models.ActionTasksListed, Tasks: tasks}}
	}
	if mode, _ := models.NormalizeMode(req.Mode); mode == models.ModeAct {
		res.UIActions = UIScript(k, scriptInput(req.Intent, out))
		res.Actions = append(res.Actions, models.Action{Type: models.ActionUIActions, UIActions: res.UIActions})
	}
	return res, nil
}

func asTyped(k intent.Kind, err error) error {
	var (
		nf  *EntityNotFoundError
		amb *AmbiguousEntityError
		inv *InvalidRequestError
		se  *StorageError
	)
	if errors.As(err, &nf) || errors.As(err, &amb) || errors.As(err, &inv) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: k.String(), Err: err}
}

func (e *Executor) confirm(ctx context.Context, o Outcome) string {
	if o.Kind == intent.TaskList || e.summarizer == nil {
		return withDateNote(Fallback(o), o)
	}
	text, err := e.summarizer.Summarize(ctx, o)
	if err != nil || strings.TrimSpace(text) == "" {
		e.logger.Warn("confirmation summarizer failed, using template", "intent", o.Kind.String(), "err", err)
		otel.RecordConfirmationFallback(ctx, o.Kind.String())
		return withDateNote(Fallback(o), o)
	}
	return withDateNote(strings.TrimSpace(text), o)
}

// dueDate parses a due-date parameter. A phrase that needs clarification yields
// no date and the guidance text.
func (e *Executor) dueDate(phrase string) (*time.Time, string) {
	r := e.dates.Parse(phrase)
	if r.NeedsClarification() {
		e.logger.Info("due date needs clarification", "phrase", phrase)
		return nil, r.Clarification
	}
	return r.Date, ""
}

func (e *Executor) create(ctx context.Context, tx store.Tx, req Request) (Outcome, error) {
	p := req.Intent.Params
	title := p.Text("title")
	if title == "" {
		return Outcome{}, &InvalidRequestError{Kind: intent.TaskCreate, Reason: MissingTitle}
	}
	priority, ok := models.NormalizePriority(p.Text("priority"))
	if !ok {
		priority = models.PriorityMedium
	}
	nt := store.NewTask{
		UserID:      req.UserID,
		Title:       title,
		Description: p.Text("description"),
		Priority:    priority,
		Status:      models.StatusTodo,
	}
	var feedback string
	if phrase := p.Text("due_date"); phrase != "" {
		nt.DueDate, feedback = e.dueDate(phrase)
	}
	t, err := tx.CreateTask(ctx, nt)
	if err != nil {
		return Outcome{}, &StorageError{Op: "create task", Err: err}
	}
	return Outcome{Task: t, DateFeedback: feedback}, nil
}

// target finds the task an intent refers to: by id when one is given, else by fuzzy title.
func (e *Executor) target(ctx context.Context, tx store.Tx, userID int64, r intent.Resolved) (store.Task, error) {
	if id, ok := r.Params.TaskID(); ok {
		t, err := tx.GetTask(ctx, userID, id)
		if errors.Is(err, store.ErrNotFound) {
			return store.Task{}, &EntityNotFoundError{Kind: r.Kind, ID: strconv.FormatInt(id, 10)}
		}
		if err != nil {
			return store.Task{}, &StorageError{Op: "get task", Err: err}
		}
		return t, nil
	}
	title := r.Params.TaskTitle(r.Kind)
	if title == "" {
		if raw := r.Params.RawTaskID(); raw != "" {
			return store.Task{}, &EntityNotFoundError{Kind: r.Kind, ID: raw}
		}
		return store.Task{}, &InvalidRequestError{Kind: r.Kind, Reason: MissingTaskRef}
	}
	// Every task is a candidate; the listing limit does not apply here.
	tasks, err := tx.ListTasks(ctx, userID, store.TaskFilter{})
	if err != nil {
		return store.Task{}, &StorageError{Op: "list tasks", Err: err}
	}
	res := e.resolver.Resolve(title, tasks)
	switch res.Kind {
	case resolve.Found:
		return res.Task, nil
	case resolve.Ambiguous:
		return store.Task{}, &AmbiguousEntityError{Kind: r.Kind, Query: title, Candidates: res.Candidates}
	}
	return store.Task{}, &EntityNotFoundError{Kind: r.Kind, Title: title}
}

// writeErr classifies a failed write. Not-found means the row vanished after it was read.
func writeErr(k intent.Kind, t store.Task, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &EntityNotFoundError{Kind: k, ID: strconv.FormatInt(t.TaskID, 10)}
	}
	return &StorageError{Op: op, Err: err}
}

func (e *Executor) update(ctx context.Context, tx store.Tx, req Request) (Outcome, error) {
	r := req.Intent
	t, err := e.target(ctx, tx, req.UserID, r)
	if err != nil {
		return Outcome{}, err
	}
	p := r.Params
	var (
		u        store.TaskUpdate
		changes  []Change
		feedback string
	)
	if title, ok := p.NewTitle(); ok && title != t.Title {
		u.Title = &title
		changes = append(changes, Change{"title", title})
	}
	if _, ok := p.String("description"); ok {
		d := p.Text("description")
		u.Description = &d
		changes = append(changes, Change{"description", d})
	}
	if pr, ok := models.NormalizePriority(p.Text("priority")); ok {
		u.Priority = &pr
		changes = append(changes, Change{"priority", pr})
	}
	if st, ok := ListStatus(p.Text("status")); ok {
		u.Status = &st
		changes = append(changes, Change{"status", st})
	}
	if p.Has("due_date") {
		if phrase := p.Text("due_date"); phrase == "" {
			u.ClearDueDate = true
			changes = append(changes, Change{"due_date", "none"})
		} else if d, fb := e.dueDate(phrase); d != nil {
			u.DueDate = d
			changes = append(changes, Change{"due_date", d.Format(store.DateLayout)})
		} else {
			feedback = fb
		}
	}
	if u.Empty() {
		if feedback != "" {
			return Outcome{Task: t, DateFeedback: feedback}, nil
		}
		return Outcome{}, &InvalidRequestError{Kind: intent.TaskUpdate, Reason: NothingToChange, Title: t.Title}
	}
	updated, err := tx.UpdateTask(ctx, req.UserID, t.TaskID, u)
	if err != nil {
		return Outcome{}, writeErr(intent.TaskUpdate, t, "update task", err)
	}
	return Outcome{Task: updated, Changes: changes, DateFeedback: feedback}, nil
}

func (e *Executor) setStatus(status string) func(context.Context, store.Tx, Request) (Outcome, error) {
	return func(ctx context.Context, tx store.Tx, req Request) (Outcome, error) {
		t, err := e.target(ctx, tx, req.UserID, req.Intent)
		if err != nil {
			return Outcome{}, err
		}
		updated, err := tx.UpdateTask(ctx, req.UserID, t.TaskID, store.TaskUpdate{Status: &status})
		if err != nil {
			return Outcome{}, writeErr(req.Intent.Kind, t, "set status", err)
		}
		return Outcome{Task: updated}, nil
	}
}

func (e *Executor) delete(ctx context.Context, tx store.Tx, req Request) (Outcome, error) {
	t, err := e.target(ctx, tx, req.UserID, req.Intent)
	if err != nil {
		return Outcome{}, err
	}
	if err := tx.DeleteTask(ctx, req.UserID, t.TaskID); err != nil {
		return Outcome{}, writeErr(intent.TaskDelete, t, "delete task", err)
	}
	return Outcome{Task: t}, nil
}

func (e *Executor) list(ctx context.Context, tx store.Tx, req Request) (Outcome, error) {
	p := req.Intent.Params
	f := store.TaskFilter{Limit: models.DefaultTaskListLimit}
	status, _ := ListStatus(p.Text("status"))
	f.Status = status
	if pr, ok := models.NormalizePriority(p.Text("priority")); ok {
		f.Priority = pr
	}
	query := p.Text("query")
	f.TitleTerms = SearchTerms(query, e.tables)
	tasks, err := tx.ListTasks(ctx, req.UserID, f)
	if err != nil {
		return Outcome{}, &StorageError{Op: "list tasks", Err: err}
	}
	return Outcome{
		Tasks:   tasks,
		Status:  status,
		Query:   query,
		Listing: FormatListing(tasks, status, query),
	}, nil
}

func scriptInput(r intent.Resolved, o Outcome) ScriptInput {
	p := r.Params
	in := ScriptInput{
		TaskID:      o.Task.TaskID,
		TaskTitle:   o.Task.Title,
		Priority:    p.Text("priority"),
		Description: p.Text("description"),
		Status:      o.Status,
	}
	switch r.Kind {
	case intent.TaskCreate:
		in.NewTitle = o.Task.Title
		in.Priority = o.Task.Priority
	case intent.TaskUpdate:
		in.NewTitle, _ = p.NewTitle()
	case intent.TaskList:
		if strings.EqualFold(p.Text("status"), "all") {
			in.Status = "all"
		}
	}
	return in
}
