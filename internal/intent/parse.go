package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const (
	// DefaultResponse fills a reply that omits "response".
	DefaultResponse = "I'm not sure how to respond to that."
	// UnparseableResponse replaces a reply that holds no usable JSON object.
	UnparseableResponse = "I'm sorry, I couldn't understand your request. Could you please rephrase it?"
	// UnavailableResponse is used when the model could not be reached.
	UnavailableResponse = "I'm sorry, I encountered an error processing your request. Please try again in a moment."
)

// ErrUnparseable is returned when model output holds no JSON object, even after repair.
var ErrUnparseable = errors.New("model output is not a JSON object")

// Resolved is one turn's intent as extracted by the model.
type Resolved struct {
	Kind     Kind
	Params   Params
	Response string
	// RawIntent is the intent string the model sent, kept for logs when it did not map to a Kind.
	RawIntent string
}

// Fallback is the conversation intent used when extraction fails.
func Fallback(response string) Resolved {
	return Resolved{Kind: Conversation, Params: Params{}, Response: response}
}

// Parse reads model output into a Resolved. Code fences are stripped and malformed JSON is
// repaired when possible. On failure it returns Fallback(UnparseableResponse) with an error
// wrapping ErrUnparseable, so callers can always use the result.
func Parse(raw string) (Resolved, error) {
	body := extractObject(stripFences(raw))
	if body == "" {
		return Fallback(UnparseableResponse), fmt.Errorf("%w: no object in %q", ErrUnparseable, truncate(raw, 120))
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(body)
		if rerr != nil {
			return Fallback(UnparseableResponse), fmt.Errorf("%w: %v", ErrUnparseable, rerr)
		}
		obj = nil
		if err := json.Unmarshal([]byte(repaired), &obj); err != nil || obj == nil {
			return Fallback(UnparseableResponse), fmt.Errorf("%w: repaired output still invalid", ErrUnparseable)
		}
	}
	if obj == nil {
		return Fallback(UnparseableResponse), fmt.Errorf("%w: null", ErrUnparseable)
	}

	r := Resolved{Kind: Conversation, Params: Params{}, Response: DefaultResponse}
	if s, ok := obj["intent"].(string); ok {
		r.RawIntent = s
		if k, known := ParseKind(s); known {
			r.Kind = k
		}
	}
	if m, ok := obj["parameters"].(map[string]any); ok {
		r.Params = Params(m)
	}
	if s, ok := obj["response"].(string); ok {
		r.Response = s
	}
	return r, nil
}

// stripFences removes a ```json (or bare ```) fence around the payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, open := range []string{"```json", "```JSON", "```"} {
		i := strings.Index(s, open)
		if i < 0 {
			continue
		}
		rest := s[i+len(open):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// extractObject trims any prose around the outermost {...}. An unclosed object is
// returned from its opening brace so repair can close it.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
