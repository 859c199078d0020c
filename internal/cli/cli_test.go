package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/ankittk/tasktalk/internal/config"
	"github.com/ankittk/tasktalk/pkg/models"
)

func TestNewRootCmd_hasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	if root == nil {
		t.Fatal("NewRootCmd returned nil")
	}
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "chat", "task", "mode", "user", "doctor", "apikey"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}

func TestNewRootCmd_versionFlag(t *testing.T) {
	root := NewRootCmd("1.2.3")
	if root.Version != "1.2.3" {
		t.Errorf("Version: got %q", root.Version)
	}
}

func TestNewRootCmd_hasHomeFlag(t *testing.T) {
	root := NewRootCmd("")
	for _, name := range []string{"home", "server", "api-key"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("expected --%s persistent flag", name)
		}
	}
}

func TestApikeyGenerateSavesToConfig(t *testing.T) {
	t.Setenv("TASKTALK_API_KEY", "")
	home := t.TempDir()
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", home, "apikey", "generate"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apikey generate: %v", err)
	}
	key := strings.SplitN(buf.String(), "\n", 2)[0]
	if !regexp.MustCompile(`^[a-f0-9]{64}$`).MatchString(key) {
		t.Fatalf("first line should be a 64-char hex key; got:\n%s", buf.String())
	}
	s, err := config.Load(home, nil)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if s.APIKey != key {
		t.Fatalf("api_key in config: got %q, want %q", s.APIKey, key)
	}

	buf.Reset()
	root = NewRootCmd("")
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", home, "apikey", "status"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apikey status: %v", err)
	}
	if want := "api_key set (****" + key[len(key)-4:] + ")"; !strings.Contains(buf.String(), want) {
		t.Fatalf("status output %q, want %q", buf.String(), want)
	}
}

func TestApikeyGeneratePrintOnly(t *testing.T) {
	home := t.TempDir()
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", home, "apikey", "generate", "--print-only"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apikey generate --print-only: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected only the key; got:\n%s", buf.String())
	}
	if _, err := os.Stat(config.ConfigPath(home)); !os.IsNotExist(err) {
		t.Fatalf("config file should not be written: %v", err)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("abcdef123456"); got != "****3456" {
		t.Errorf("maskKey: got %q", got)
	}
	if got := maskKey("abc"); got != "****" {
		t.Errorf("maskKey short: got %q", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nTASKTALK_TEST_A=one\n\nTASKTALK_TEST_B = \"two\"\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKTALK_TEST_A", "")
	t.Setenv("TASKTALK_TEST_B", "")
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("TASKTALK_TEST_A"); got != "one" {
		t.Errorf("A: got %q", got)
	}
	if got := os.Getenv("TASKTALK_TEST_B"); got != "two" {
		t.Errorf("B: got %q", got)
	}
}

func TestTaskListAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/7/tasks" || r.URL.Query().Get("status") != "done" {
			t.Errorf("request: %s", r.URL.String())
		}
		due := "2025-03-11"
		_ = json.NewEncoder(w).Encode([]models.Task{{TaskID: 3, Title: "Call mom", Priority: "high", Status: "done", DueDate: &due}})
	}))
	defer srv.Close()

	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", t.TempDir(), "--server", srv.URL, "task", "list", "--user", "7", "--status", "done"})
	if err := root.Execute(); err != nil {
		t.Fatalf("task list: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "Call mom", "high", "2025-03-11"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTaskRequiresUser(t *testing.T) {
	root := NewRootCmd("")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--home", t.TempDir(), "task", "list"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error without --user")
	}
}

func TestChatOneShot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.URL.Path != "/users/2/chat" || req.Message != "add buy milk" {
			t.Errorf("request: %s %+v", r.URL.Path, req)
		}
		_ = json.NewEncoder(w).Encode(models.ChatResponse{
			Response:  `Great! I've created your task "buy milk" with medium priority.`,
			Actions:   []models.Action{{Type: models.ActionTaskAdded, TaskID: 11}},
			UIActions: []models.UIAction{},
		})
	}))
	defer srv.Close()

	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--home", t.TempDir(), "--server", srv.URL, "chat", "--user", "2", "add", "buy", "milk"})
	if err := root.Execute(); err != nil {
		t.Fatalf("chat: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Great! I've created your task") || !strings.Contains(out, "[task_added task 11]") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestParseTaskID(t *testing.T) {
	if id, err := parseTaskID("#12"); err != nil || id != 12 {
		t.Fatalf("parseTaskID(#12) = %d, %v", id, err)
	}
	if _, err := parseTaskID("abc"); err == nil {
		t.Fatal("expected error for abc")
	}
}
