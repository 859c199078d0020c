package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankittk/tasktalk/pkg/models"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:9000", "")
	if c.BaseURL != "http://localhost:9000" || c.APIKey != "" {
		t.Errorf("New: %+v", c)
	}
	c2 := New("", "secret")
	if c2.APIKey != "secret" || c2.BaseURL != DefaultBaseURL {
		t.Errorf("New with key: %+v", c2)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ok, err := New(srv.URL, "").Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !ok {
		t.Fatal("Health: expected ok true")
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"user not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").GetUser(context.Background(), 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "user not found" || apiErr.Path != "/users/5" {
		t.Fatalf("APIError: %+v", apiErr)
	}
}

func TestClient_setsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, _ = New(srv.URL, "mykey").Health(context.Background())
	if gotKey != "mykey" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/3/chat" {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Message != "list my tasks" || req.AssistantMode != "plan" {
			t.Errorf("body: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(models.ChatResponse{
			Response:  "Here are your 0 tasks:\n",
			Actions:   []models.Action{{Type: models.ActionTasksListed}},
			UIActions: []models.UIAction{},
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, "").Chat(context.Background(), 3, "list my tasks", "plan")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != models.ActionTasksListed {
		t.Fatalf("actions: %+v", res.Actions)
	}
}

func TestListTasksQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/1/tasks" {
			t.Errorf("path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("status") != "done" || q.Get("q") != "mom" || q.Has("priority") {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"task_id":4,"title":"Call mom","priority":"high","status":"done"}]`))
	}))
	defer srv.Close()

	tasks, err := New(srv.URL, "").ListTasks(context.Background(), 1, TaskQuery{Status: "done", Search: "mom"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].TaskID != 4 {
		t.Fatalf("tasks: %+v", tasks)
	}
}
