package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/ankittk/tasktalk/pkg/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TASKTALK_ADDR", "TASKTALK_API_KEY", "TASKTALK_DB_DRIVER", "TASKTALK_DB_URL",
		"TASKTALK_LLM_PROVIDER", "TASKTALK_LLM_API_KEY", "TASKTALK_LLM_MODEL", "TASKTALK_LLM_TIMEOUT",
		"TASKTALK_ASSISTANT_DEFAULT_MODE", "OPENAI_API_KEY", "GEMINI_API_KEY", "DATABASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	s, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, "sqlite", s.DB.Driver)
	assert.Equal(t, llm.ProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, llm.DefaultTimeout, s.LLM.Timeout)
	assert.Equal(t, models.ModeAct, s.DefaultMode)
	assert.Equal(t, models.DefaultSessionCapacity, s.SessionCap)
	assert.True(t, s.OTel)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	cfg := "addr: \":9000\"\nllm:\n  provider: gemini\n  model: gemini-pro\n  timeout: 5s\nassistant:\n  default_mode: PLAN\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFile), []byte(cfg), 0o600))
	t.Setenv("TASKTALK_ADDR", ":9100")
	t.Setenv("GEMINI_API_KEY", "g-key")

	s, err := Load(home, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9100", s.Addr)
	assert.Equal(t, llm.ProviderGemini, s.LLM.Provider)
	assert.Equal(t, "gemini-pro", s.LLM.Model)
	assert.Equal(t, 5*time.Second, s.LLM.Timeout)
	assert.Equal(t, "g-key", s.LLM.APIKey)
	assert.Equal(t, models.ModePlan, s.DefaultMode)

	opts := s.LLMOptions()
	assert.Equal(t, "gemini-pro", opts.Model)
	assert.Equal(t, "g-key", opts.APIKey)
}

func TestLoadExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("TASKTALK_LLM_API_KEY", "explicit")
	s, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "explicit", s.LLM.APIKey)
}

func TestLoadSetOverridesEnv(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("TASKTALK_ADDR", ":9100")
	v := NewViper(home)
	v.Set(KeyAddr, ":7000")
	s, err := Load(home, v)
	require.NoError(t, err)
	assert.Equal(t, ":7000", s.Addr)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad driver", map[string]string{"TASKTALK_DB_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"TASKTALK_DB_DRIVER": "postgres"}},
		{"bad provider", map[string]string{"TASKTALK_LLM_PROVIDER": "claude"}},
		{"bad mode", map[string]string{"TASKTALK_ASSISTANT_DEFAULT_MODE": "auto"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir(), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadPostgresFromDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKTALK_DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tasktalk")
	s, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/tasktalk", s.DB.URL)
}

func TestSaveAPIKeyKeepsOtherSettings(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	cfg := "llm:\n  provider: gemini\n  model: gemini-pro\n"
	require.NoError(t, os.WriteFile(ConfigPath(home), []byte(cfg), 0o600))
	t.Setenv("TASKTALK_ADDR", ":9100")

	path, err := SaveAPIKey(home, "secret-key")
	require.NoError(t, err)
	assert.Equal(t, ConfigPath(home), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), ":9100", "environment must not be persisted")

	s, err := Load(home, nil)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", s.APIKey)
	assert.Equal(t, llm.ProviderGemini, s.LLM.Provider)
	assert.Equal(t, "gemini-pro", s.LLM.Model)
}

func TestSaveAPIKeyCreatesHome(t *testing.T) {
	clearEnv(t)
	home := filepath.Join(t.TempDir(), "fresh")
	_, err := SaveAPIKey(home, "k1")
	require.NoError(t, err)
	s, err := Load(home, nil)
	require.NoError(t, err)
	assert.Equal(t, "k1", s.APIKey)

	_, err = SaveAPIKey(home, "")
	assert.Error(t, err)
}
