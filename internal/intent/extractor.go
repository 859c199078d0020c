package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ankittk/tasktalk/internal/llm"
)

// ErrUnavailable wraps a failed model call.
var ErrUnavailable = errors.New("intent model unavailable")

// Extractor asks a hosted model for the intent of one message.
type Extractor struct {
	Model llm.Completer
	Docs  *Docs
}

// NewExtractor returns an Extractor using the embedded documentation.
func NewExtractor(model llm.Completer) *Extractor {
	return &Extractor{Model: model, Docs: DefaultDocs()}
}

// Extract always returns a usable Resolved. A non-nil error (wrapping ErrUnavailable or
// ErrUnparseable) reports that the result is a fallback; it is meant for logs only.
func (e *Extractor) Extract(ctx context.Context, message string, history []Turn) (Resolved, error) {
	if e.Model == nil {
		return Fallback(UnavailableResponse), fmt.Errorf("%w: no model configured", ErrUnavailable)
	}
	out, err := e.Model.Complete(ctx, BuildPrompt(message, history, e.Docs))
	if err != nil {
		return Fallback(UnavailableResponse), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Parse(out)
}
