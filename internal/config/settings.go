package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/ankittk/tasktalk/pkg/models"
)

// Setting keys. Environment variables use the TASKTALK_ prefix with dots as
// underscores, e.g. TASKTALK_LLM_API_KEY.
const (
	KeyAddr            = "addr"
	KeyAPIKey          = "api_key"
	KeyDBDriver        = "db.driver"
	KeyDBURL           = "db.url"
	KeyLLMProvider     = "llm.provider"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMAPIKey       = "llm.api_key"
	KeyLLMModel        = "llm.model"
	KeyLLMTimeout      = "llm.timeout"
	KeyDefaultMode     = "assistant.default_mode"
	KeySessionCapacity = "assistant.session_capacity"
	KeyHeuristicsFile  = "heuristics_file"
	KeyOTel            = "otel"
)

// ConfigFile is the optional settings file name under home.
const ConfigFile = "config.yaml"

// Settings is the resolved server configuration.
type Settings struct {
	Home           string
	Addr           string
	APIKey         string
	DB             DBSettings
	LLM            LLMSettings
	DefaultMode    string
	SessionCap     int
	HeuristicsFile string
	OTel           bool
}

type DBSettings struct {
	Driver string // sqlite or postgres
	URL    string
}

type LLMSettings struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewViper returns a viper instance with defaults, the home config file and the
// TASKTALK_ environment bound. Callers bind flags on it before calling Load.
func NewViper(home string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyDBDriver, "sqlite")
	v.SetDefault(KeyLLMProvider, llm.ProviderOpenAI)
	v.SetDefault(KeyLLMTimeout, llm.DefaultTimeout)
	v.SetDefault(KeyDefaultMode, models.ModeAct)
	v.SetDefault(KeySessionCapacity, models.DefaultSessionCapacity)
	v.SetDefault(KeyOTel, true)
	v.SetConfigFile(ConfigPath(home))
	v.SetEnvPrefix("TASKTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file when present and returns validated settings.
// Precedence is flags, then environment, then file, then defaults.
func Load(home string, v *viper.Viper) (Settings, error) {
	if v == nil {
		v = NewViper(home)
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read %s: %w", v.ConfigFileUsed(), err)
		}
	}
	s := Settings{
		Home:   home,
		Addr:   v.GetString(KeyAddr),
		APIKey: v.GetString(KeyAPIKey),
		DB: DBSettings{
			Driver: strings.ToLower(v.GetString(KeyDBDriver)),
			URL:    v.GetString(KeyDBURL),
		},
		LLM: LLMSettings{
			Provider: strings.ToLower(v.GetString(KeyLLMProvider)),
			BaseURL:  v.GetString(KeyLLMBaseURL),
			APIKey:   v.GetString(KeyLLMAPIKey),
			Model:    v.GetString(KeyLLMModel),
			Timeout:  v.GetDuration(KeyLLMTimeout),
		},
		DefaultMode:    v.GetString(KeyDefaultMode),
		SessionCap:     v.GetInt(KeySessionCapacity),
		HeuristicsFile: v.GetString(KeyHeuristicsFile),
		OTel:           v.GetBool(KeyOTel),
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = providerKeyFromEnv(s.LLM.Provider)
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// providerKeyFromEnv falls back to the provider's conventional variable.
func providerKeyFromEnv(provider string) string {
	switch provider {
	case llm.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func (s *Settings) validate() error {
	switch s.DB.Driver {
	case "sqlite":
	case "postgres":
		if s.DB.URL == "" {
			s.DB.URL = os.Getenv("DATABASE_URL")
		}
		if s.DB.URL == "" {
			return errors.New("db.url (or DATABASE_URL) is required for postgres")
		}
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", s.DB.Driver)
	}
	switch s.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be %s or %s, got %q", llm.ProviderOpenAI, llm.ProviderGemini, s.LLM.Provider)
	}
	if s.LLM.Timeout <= 0 {
		s.LLM.Timeout = llm.DefaultTimeout
	}
	mode, ok := models.NormalizeMode(s.DefaultMode)
	if !ok {
		return fmt.Errorf("assistant.default_mode must be plan or act, got %q", s.DefaultMode)
	}
	s.DefaultMode = mode
	if s.SessionCap <= 0 {
		s.SessionCap = models.DefaultSessionCapacity
	}
	return nil
}

// LLMOptions converts the model settings for llm.New.
func (s Settings) LLMOptions() llm.Options {
	return llm.Options{
		Provider: s.LLM.Provider,
		BaseURL:  s.LLM.BaseURL,
		APIKey:   s.LLM.APIKey,
		Model:    s.LLM.Model,
		Timeout:  s.LLM.Timeout,
	}
}

// SaveAPIKey sets api_key in the home settings file, keeping every other key already
// in it. Defaults and environment values are not written.
func SaveAPIKey(home, key string) (string, error) {
	if key == "" {
		return "", errors.New("api key is empty")
	}
	path := ConfigPath(home)
	if err := os.MkdirAll(home, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", home, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigPermissions(0o600)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	v.Set(KeyAPIKey, key)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
