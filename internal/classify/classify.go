// Package classify decides whether a model reply is asking the user for more information,
// in which case the turn must not execute any action.
package classify

import (
	"strings"

	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/intent"
)

// Reason names the rule that produced a Decision.
type Reason string

const (
	ReasonNone                Reason = "none"
	ReasonWrapUpQuestion      Reason = "wrap_up_question"
	ReasonTaskQuestion        Reason = "task_question"
	ReasonClarificationPhrase Reason = "clarification_phrase"
	ReasonMissingPriority     Reason = "missing_priority"
	ReasonMissingTitle        Reason = "missing_title"
)

// Decision is the classifier outcome for one reply.
type Decision struct {
	NeedsInfo bool
	Reason    Reason
}

// Classifier applies the keyword tables to a reply.
type Classifier struct {
	tables *heuristics.Tables
}

// New returns a Classifier. A nil tables uses the embedded defaults.
func New(tables *heuristics.Tables) *Classifier {
	if tables == nil {
		tables = heuristics.Default()
	}
	return &Classifier{tables: tables}
}

// Classify inspects r.Response. The reply rules run first, first match wins:
// a wrap-up question ("anything else?") is not a request for information, a question
// about a task field is, and so is any known clarification phrasing. The intent overrides
// then force NeedsInfo for a task_update that talks about priority without one and for a
// task_create without a title.
func (c *Classifier) Classify(r intent.Resolved) Decision {
	cl := c.tables.Classifier
	text := strings.ToLower(r.Response)
	question := strings.Contains(text, "?")

	d := Decision{Reason: ReasonNone}
	switch {
	case question && heuristics.ContainsAny(text, cl.ConfirmationPhrases):
		d.Reason = ReasonWrapUpQuestion
	case question && heuristics.ContainsAny(text, cl.TaskNouns):
		d = Decision{NeedsInfo: true, Reason: ReasonTaskQuestion}
	case heuristics.ContainsAny(text, cl.ClarificationPhrases):
		d = Decision{NeedsInfo: true, Reason: ReasonClarificationPhrase}
	}

	switch r.Kind {
	case intent.TaskUpdate:
		if r.Params.Text("priority") == "" && strings.Contains(text, "priority") {
			d = Decision{NeedsInfo: true, Reason: ReasonMissingPriority}
		}
	case intent.TaskCreate:
		if r.Params.Text("title") == "" {
			d = Decision{NeedsInfo: true, Reason: ReasonMissingTitle}
		}
	}
	return d
}
