// Package llm calls a hosted language model with a single prompt and returns its text.
// Two wire formats are supported: OpenAI-compatible chat completions and Gemini generateContent.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultTimeout = 30 * time.Second
)

// ErrNotConfigured is returned by New when no API key is set.
var ErrNotConfigured = errors.New("llm: api key not configured")

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a hosted model client.
type Options struct {
	Provider    string // openai (default) or gemini
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	HTTPClient  *http.Client
}

// StatusError is returned when the provider answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Code, e.Body)
}

// Client is a Completer backed by one provider.
type Client struct {
	opts Options
	hc   *http.Client
}

// New validates opts and fills in provider defaults.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNotConfigured
	}
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	if opts.Provider == "" {
		opts.Provider = ProviderOpenAI
	}
	switch opts.Provider {
	case ProviderOpenAI:
		if opts.BaseURL == "" {
			opts.BaseURL = "https://api.openai.com"
		}
		if opts.Model == "" {
			opts.Model = "gpt-4o-mini"
		}
	case ProviderGemini:
		if opts.BaseURL == "" {
			opts.BaseURL = "https://generativelanguage.googleapis.com"
		}
		if opts.Model == "" {
			opts.Model = "gemini-1.5-flash-latest"
		}
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.2
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{opts: opts, hc: hc}, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.opts.Provider }

// Complete sends prompt as a single user message. The call is bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	if c.opts.Provider == ProviderGemini {
		return c.completeGemini(ctx, prompt)
	}
	return c.completeOpenAI(ctx, prompt)
}

func (c *Client) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": c.opts.Model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"temperature": c.opts.Temperature,
	}
	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/v1/chat/completions"
	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.opts.APIKey}
	if err := c.post(ctx, endpoint, headers, reqBody, &apiResp); err != nil {
		return "", err
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", ProviderOpenAI)
	}
	return apiResp.Choices[0].Message.Content, nil
}

func (c *Client) completeGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     c.opts.Temperature,
			"topP":            0.8,
			"topK":            40,
			"maxOutputTokens": 1024,
		},
	}
	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(c.opts.Model) + ":generateContent?key=" + url.QueryEscape(c.opts.APIKey)
	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := c.post(ctx, endpoint, nil, reqBody, &apiResp); err != nil {
		return "", err
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%s: empty candidates", ProviderGemini)
	}
	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.opts.Provider, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Provider: c.opts.Provider, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", c.opts.Provider, err)
	}
	return nil
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
