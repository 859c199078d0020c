package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_requiresKey(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New without key err=%v", err)
	}
	if _, err := New(Options{APIKey: "k", Provider: "nope"}); err == nil {
		t.Fatal("unknown provider should fail")
	}
}

func TestComplete_openAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "test-model" || len(body.Messages) != 1 || body.Messages[0].Content != "hello" {
			t.Errorf("body = %+v", body)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/", APIKey: "secret", Model: "test-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hi there" {
		t.Fatalf("out = %q", out)
	}
}

func TestComplete_gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/g-model:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "gk" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"conversation\"}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := New(Options{Provider: "Gemini", BaseURL: srv.URL, APIKey: "gk", Model: "g-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Provider() != ProviderGemini {
		t.Fatalf("provider = %s", c.Provider())
	}
	out, err := c.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"intent":"conversation"}` {
		t.Fatalf("out = %q", out)
	}
}

func TestComplete_statusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := New(Options{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Complete(context.Background(), "p")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusTooManyRequests || se.Body != "quota exceeded" {
		t.Fatalf("status error = %+v", se)
	}
}

func TestComplete_timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer close(done)

	c, _ := New(Options{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	if _, err := c.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected timeout error")
	}
}
