package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ankittk/tasktalk/internal/action"
	"github.com/ankittk/tasktalk/internal/dialogue"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/ankittk/tasktalk/pkg/models"
)

type handlers struct {
	store       store.Store
	hub         *SSEHub
	coord       *dialogue.Coordinator
	defaultMode string
	logger      *slog.Logger
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.createUser)
	mux.HandleFunc("GET /users/{id}", h.getUser)

	mux.HandleFunc("GET /users/{id}/tasks", h.listTasks)
	mux.HandleFunc("POST /users/{id}/tasks", h.createTask)
	mux.HandleFunc("GET /users/{id}/tasks/{taskID}", h.getTask)
	mux.HandleFunc("PUT /users/{id}/tasks/{taskID}", h.updateTask)
	mux.HandleFunc("PATCH /users/{id}/tasks/{taskID}", h.updateTask)
	mux.HandleFunc("PATCH /users/{id}/tasks/{taskID}/status", h.setTaskStatus)
	mux.HandleFunc("DELETE /users/{id}/tasks/{taskID}", h.deleteTask)

	mux.HandleFunc("POST /users/{id}/chat", h.chat)
	mux.HandleFunc("POST /users/{id}/chat/reset", h.resetChat)

	mux.HandleFunc("GET /users/{id}/settings/assistant-mode", h.getMode)
	mux.HandleFunc("POST /users/{id}/settings/assistant-mode", h.setMode)
}

// --- Users ---

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string `json:"name"`
		PreferredMode string `json:"preferred_mode"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name required")
		return
	}
	mode := h.defaultMode
	if body.PreferredMode != "" {
		m, ok := models.NormalizeMode(body.PreferredMode)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "preferred_mode must be plan or act")
			return
		}
		mode = m
	}
	u, err := h.store.CreateUser(r.Context(), name, mode)
	if err != nil {
		h.internal(w, "create user", err)
		return
	}
	writeJSON(w, u.Model())
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	writeJSON(w, u.Model())
}

// user loads the {id} path user, writing 400/404 on failure.
func (h *handlers) user(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid user id")
		return store.User{}, false
	}
	u, err := h.store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return store.User{}, false
	}
	if err != nil {
		h.internal(w, "get user", err)
		return store.User{}, false
	}
	return u, true
}

// --- Tasks ---

func (h *handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := store.TaskFilter{Limit: models.DefaultTaskListLimit}
	if s := q.Get("status"); s != "" && s != "all" {
		status, ok := action.ListStatus(s)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = status
	}
	if p := q.Get("priority"); p != "" {
		priority, ok := models.NormalizePriority(p)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "invalid priority")
			return
		}
		f.Priority = priority
	}
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		f.TitleTerms = []string{s}
	}
	tasks, err := h.store.ListTasks(r.Context(), u.UserID, f)
	if err != nil {
		h.internal(w, "list tasks", err)
		return
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Model())
	}
	writeJSON(w, out)
}

func (h *handlers) createTask(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	var in models.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	upd, msg := parseTaskInput(in)
	if msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	if upd.Title == nil || strings.TrimSpace(*upd.Title) == "" {
		writeJSONError(w, http.StatusBadRequest, "title required")
		return
	}
	nt := store.NewTask{UserID: u.UserID, Title: strings.TrimSpace(*upd.Title), DueDate: upd.DueDate}
	if upd.Description != nil {
		nt.Description = *upd.Description
	}
	if upd.Priority != nil {
		nt.Priority = *upd.Priority
	}
	if upd.Status != nil {
		nt.Status = *upd.Status
	}
	t, err := h.store.CreateTask(r.Context(), nt)
	if err != nil {
		h.internal(w, "create task", err)
		return
	}
	h.hub.Publish(Event{Type: "task_update", UserID: u.UserID, TaskID: t.TaskID})
	writeJSONStatus(w, http.StatusCreated, t.Model())
}

// parseTaskInput validates REST task fields. An empty due_date clears it.
func parseTaskInput(in models.TaskInput) (store.TaskUpdate, string) {
	var u store.TaskUpdate
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return u, "title must not be empty"
		}
		u.Title = &t
	}
	u.Description = in.Description
	if in.Priority != nil {
		p, ok := models.NormalizePriority(*in.Priority)
		if !ok {
			return u, "priority must be low, medium, high or urgent"
		}
		u.Priority = &p
	}
	if in.Status != nil {
		s, ok := models.NormalizeStatus(*in.Status)
		if !ok {
			return u, "status must be todo, in_progress, done or archived"
		}
		u.Status = &s
	}
	if in.DueDate != nil {
		if *in.DueDate == "" {
			u.ClearDueDate = true
		} else if u.DueDate = store.ParseDueDate(*in.DueDate); u.DueDate == nil {
			return u, "due_date must be YYYY-MM-DD"
		}
	}
	return u, ""
}

// task loads the {taskID} path task of the path user.
func (h *handlers) task(w http.ResponseWriter, r *http.Request) (store.Task, bool) {
	u, ok := h.user(w, r)
	if !ok {
		return store.Task{}, false
	}
	id, err := strconv.ParseInt(r.PathValue("taskID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid task id")
		return store.Task{}, false
	}
	t, err := h.store.GetTask(r.Context(), u.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "task not found")
		return store.Task{}, false
	}
	if err != nil {
		h.internal(w, "get task", err)
		return store.Task{}, false
	}
	return t, true
}

func (h *handlers) getTask(w http.ResponseWriter, r *http.Request) {
	if t, ok := h.task(w, r); ok {
		writeJSON(w, t.Model())
	}
}

func (h *handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}
	var in models.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	upd, msg := parseTaskInput(in)
	if msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	h.applyUpdate(w, r, t, upd)
}

func (h *handlers) setTaskStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s, ok := models.NormalizeStatus(body.Status)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "status must be todo, in_progress, done or archived")
		return
	}
	h.applyUpdate(w, r, t, store.TaskUpdate{Status: &s})
}

func (h *handlers) applyUpdate(w http.ResponseWriter, r *http.Request, t store.Task, upd store.TaskUpdate) {
	if upd.Empty() {
		writeJSON(w, t.Model())
		return
	}
	updated, err := h.store.UpdateTask(r.Context(), t.UserID, t.TaskID, upd)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		h.internal(w, "update task", err)
		return
	}
	h.hub.Publish(Event{Type: "task_update", UserID: t.UserID, TaskID: t.TaskID})
	writeJSON(w, updated.Model())
}

func (h *handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTask(r.Context(), t.UserID, t.TaskID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.internal(w, "delete task", err)
		return
	}
	h.hub.Publish(Event{Type: "task_update", UserID: t.UserID, TaskID: t.TaskID})
	writeJSON(w, map[string]any{"ok": true})
}

// --- Chat ---

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message required")
		return
	}
	if req.AssistantMode != "" {
		if _, ok := models.NormalizeMode(req.AssistantMode); !ok {
			writeJSONError(w, http.StatusBadRequest, "assistant_mode must be plan or act")
			return
		}
	}
	res, err := h.coord.HandleTurn(r.Context(), dialogue.TurnRequest{
		UserID:  u.UserID,
		Message: req.Message,
		Mode:    req.AssistantMode,
	})
	if errors.Is(err, dialogue.ErrUnknownUser) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internal(w, "chat turn", err)
		return
	}
	for _, a := range res.Actions {
		switch a.Type {
		case models.ActionTaskAdded, models.ActionTaskUpdated, models.ActionTaskDeleted:
			h.hub.Publish(Event{Type: "task_update", UserID: u.UserID, TaskID: a.TaskID})
		}
	}
	writeJSON(w, models.ChatResponse{Response: res.Response, Actions: res.Actions, UIActions: res.UIActions})
}

func (h *handlers) resetChat(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	writeJSON(w, models.ChatResponse{
		Response:  h.coord.Reset(u.UserID),
		Actions:   []models.Action{},
		UIActions: []models.UIAction{},
	})
}

// --- Settings ---

func (h *handlers) getMode(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	mode, ok := models.NormalizeMode(u.PreferredMode)
	if !ok {
		mode = h.defaultMode
	}
	writeJSON(w, models.AssistantModeSetting{AssistantMode: mode})
}

func (h *handlers) setMode(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(w, r)
	if !ok {
		return
	}
	var body models.AssistantModeSetting
	if !decodeJSON(w, r, &body) {
		return
	}
	mode, ok := models.NormalizeMode(body.AssistantMode)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "assistant_mode must be plan or act")
		return
	}
	if err := h.store.SetPreferredMode(r.Context(), u.UserID, mode); err != nil {
		h.internal(w, "set assistant mode", err)
		return
	}
	writeJSON(w, models.AssistantModeSetting{AssistantMode: mode})
}

// internal logs err and writes a generic 500; store errors are not shown to clients.
func (h *handlers) internal(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, "err", err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}
