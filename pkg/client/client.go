// Package client provides a Go SDK for the tasktalk HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ankittk/tasktalk/pkg/models"
)

// DefaultBaseURL is where `tasktalk serve` listens by default.
const DefaultBaseURL = "http://localhost:8080"

// Client calls the tasktalk HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:8080"
	APIKey     string       // optional; sent as X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL. An empty baseURL uses DefaultBaseURL.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func userPath(userID int64) string { return "/users/" + strconv.FormatInt(userID, 10) }

func taskPath(userID, taskID int64) string {
	return userPath(userID) + "/tasks/" + strconv.FormatInt(taskID, 10)
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// CreateUser creates a user. An empty mode takes the server default.
func (c *Client) CreateUser(ctx context.Context, name, mode string) (*models.User, error) {
	body := map[string]string{"name": name}
	if mode != "" {
		body["preferred_mode"] = mode
	}
	var out models.User
	err := c.doJSON(ctx, http.MethodPost, "/users", body, &out)
	return &out, err
}

// GetUser returns a user by id.
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var out models.User
	err := c.doJSON(ctx, http.MethodGet, userPath(userID), nil, &out)
	return &out, err
}

// TaskQuery filters ListTasks. Zero values do not filter.
type TaskQuery struct {
	Status   string // todo, in_progress, done, archived, or a synonym such as "completed"
	Priority string
	Search   string
}

// ListTasks returns the user's tasks.
func (c *Client) ListTasks(ctx context.Context, userID int64, q TaskQuery) ([]models.Task, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	path := userPath(userID) + "/tasks"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []models.Task
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateTask creates a task and returns it.
func (c *Client) CreateTask(ctx context.Context, userID int64, in models.TaskInput) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPost, userPath(userID)+"/tasks", in, &out)
	return &out, err
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodGet, taskPath(userID, taskID), nil, &out)
	return &out, err
}

// UpdateTask changes the non-nil fields of in.
func (c *Client) UpdateTask(ctx context.Context, userID, taskID int64, in models.TaskInput) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPatch, taskPath(userID, taskID), in, &out)
	return &out, err
}

// SetTaskStatus sets the task's status.
func (c *Client) SetTaskStatus(ctx context.Context, userID, taskID int64, status string) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPatch, taskPath(userID, taskID)+"/status", map[string]string{"status": status}, &out)
	return &out, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID int64) error {
	return c.doJSON(ctx, http.MethodDelete, taskPath(userID, taskID), nil, nil)
}

// Chat sends one message. An empty mode uses the user's preference.
func (c *Client) Chat(ctx context.Context, userID int64, message, mode string) (*models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, userPath(userID)+"/chat", models.ChatRequest{Message: message, AssistantMode: mode}, &out)
	return &out, err
}

// ResetChat forgets the user's conversation history.
func (c *Client) ResetChat(ctx context.Context, userID int64) (*models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, userPath(userID)+"/chat/reset", nil, &out)
	return &out, err
}

// AssistantMode returns the user's preferred mode.
func (c *Client) AssistantMode(ctx context.Context, userID int64) (string, error) {
	var out models.AssistantModeSetting
	err := c.doJSON(ctx, http.MethodGet, userPath(userID)+"/settings/assistant-mode", nil, &out)
	return out.AssistantMode, err
}

// SetAssistantMode stores the user's preferred mode (plan or act).
func (c *Client) SetAssistantMode(ctx context.Context, userID int64, mode string) (string, error) {
	var out models.AssistantModeSetting
	err := c.doJSON(ctx, http.MethodPost, userPath(userID)+"/settings/assistant-mode", models.AssistantModeSetting{AssistantMode: mode}, &out)
	return out.AssistantMode, err
}
