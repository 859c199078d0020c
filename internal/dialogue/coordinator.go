// Package dialogue runs one chat turn end to end: intent extraction, the
// needs-information check, execution, and the reply the user finally sees.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ankittk/tasktalk/internal/action"
	"github.com/ankittk/tasktalk/internal/classify"
	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/otel"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/ankittk/tasktalk/pkg/models"
)

// ResetResponse is the reply to a conversation reset.
const ResetResponse = "Conversation has been reset. How can I help you with your tasks today?"

// ErrUnknownUser is returned by HandleTurn when the user does not exist.
var ErrUnknownUser = errors.New("unknown user")

// State is a step of a turn.
type State string

const (
	Extracting       State = "extracting"
	Classifying      State = "classifying"
	Executing        State = "executing"
	AwaitingInfo     State = "awaiting_info"
	Merging          State = "merging"
	ErrorTranslating State = "error_translating"
	Done             State = "done"
)

// Extractor turns a message into a resolved intent. It always returns a usable
// Resolved; the error only says the result is a fallback.
type Extractor interface {
	Extract(ctx context.Context, message string, history []intent.Turn) (intent.Resolved, error)
}

// Executor runs a resolved intent.
type Executor interface {
	Execute(ctx context.Context, req action.Request) (action.Result, error)
}

// Users looks up the user's stored preferences.
type Users interface {
	GetUser(ctx context.Context, userID int64) (store.User, error)
}

// TurnRequest is one user message. Mode, when valid, overrides the user's preferred mode.
type TurnRequest struct {
	UserID  int64
	Message string
	Mode    string
}

// TurnResult is what the caller returns to the user. Actions and UIActions are never nil.
type TurnResult struct {
	TurnID    string
	Response  string
	Actions   []models.Action
	UIActions []models.UIAction
	Intent    intent.Kind
	NeedsInfo bool
	Trail     []State
}

// Coordinator runs turns. Turns of one user are serialized through the session lock.
type Coordinator struct {
	extractor  Extractor
	classifier *classify.Classifier
	executor   Executor
	users      Users
	sessions   *SessionStore
	tables     *heuristics.Tables
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithSessions replaces the session store.
func WithSessions(s *SessionStore) Option { return func(c *Coordinator) { c.sessions = s } }

// WithTables sets the heuristic tables used by the classifier and merge (default embedded).
func WithTables(t *heuristics.Tables) Option { return func(c *Coordinator) { c.tables = t } }

// New returns a Coordinator. users may be nil, in which case every turn runs in ACT mode
// unless the request says otherwise.
func New(ex Extractor, exec Executor, users Users, opts ...Option) *Coordinator {
	c := &Coordinator{
		extractor: ex,
		executor:  exec,
		users:     users,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.tables == nil {
		c.tables = heuristics.Default()
	}
	if c.sessions == nil {
		c.sessions = NewSessionStore(0, 0)
	}
	c.classifier = classify.New(c.tables)
	return c
}

// Sessions returns the session store.
func (c *Coordinator) Sessions() *SessionStore { return c.sessions }

// Reset forgets the user's conversation history.
func (c *Coordinator) Reset(userID int64) string {
	c.sessions.Reset(userID)
	return ResetResponse
}

// HandleTurn runs one message. The only error is ErrUnknownUser; every other failure
// ends in a fixed user-facing reply.
func (c *Coordinator) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	start := time.Now()
	res := TurnResult{
		TurnID:    ulid.Make().String(),
		Actions:   []models.Action{},
		UIActions: []models.UIAction{},
	}
	log := c.logger.With("turn", res.TurnID, "user_id", req.UserID)

	mode, err := c.mode(ctx, req, log)
	if err != nil {
		return TurnResult{}, err
	}

	sess := c.sessions.Get(req.UserID)
	sess.Lock()
	defer sess.Unlock()

	res.Trail = append(res.Trail, Extracting)
	resolved, err := c.extractor.Extract(ctx, req.Message, sess.History())
	if err != nil {
		kind := "unparseable"
		if errors.Is(err, intent.ErrUnavailable) {
			kind = "unavailable"
		}
		log.Warn("intent extraction failed", "kind", kind, "err", err)
		otel.RecordExtractionFailure(ctx, kind)
	}
	res.Intent = resolved.Kind

	res.Trail = append(res.Trail, Classifying)
	decision := c.classifier.Classify(resolved)

	outcome := "executed"
	switch {
	case resolved.Kind == intent.Conversation:
		outcome = "conversation"
		res.Response = resolved.Response
	case decision.NeedsInfo:
		res.Trail = append(res.Trail, AwaitingInfo)
		outcome = "awaiting_info"
		res.NeedsInfo = true
		res.Response = resolved.Response
		log.Info("asking for more information", "intent", resolved.Kind.String(), "reason", string(decision.Reason))
		otel.RecordClarification(ctx, string(decision.Reason))
	default:
		res.Trail = append(res.Trail, Executing)
		out, err := c.executor.Execute(ctx, action.Request{UserID: req.UserID, Intent: resolved, Mode: mode})
		if err != nil {
			res.Trail = append(res.Trail, ErrorTranslating)
			outcome = "error"
			res.Response = Translate(err)
			log.Warn("action failed", "intent", resolved.Kind.String(), "err", err)
			break
		}
		res.Trail = append(res.Trail, Merging)
		res.Response = Merge(resolved.Kind, resolved.Response, out.Confirmation, c.tables.Merge.StockOpeners)
		if out.Actions != nil {
			res.Actions = out.Actions
		}
		if out.UIActions != nil {
			res.UIActions = out.UIActions
		}
		log.Info("action executed", "intent", resolved.Kind.String(), "actions", len(res.Actions))
	}
	res.Trail = append(res.Trail, Done)

	sess.Append(intent.Turn{User: req.Message, Assistant: res.Response})
	otel.RecordTurn(ctx, resolved.Kind.String(), outcome, time.Since(start))
	return res, nil
}

// mode picks the request override when valid, then the user's preference, then ACT.
func (c *Coordinator) mode(ctx context.Context, req TurnRequest, log *slog.Logger) (string, error) {
	if m, ok := models.NormalizeMode(req.Mode); ok {
		return m, nil
	}
	if c.users == nil {
		return models.ModeAct, nil
	}
	u, err := c.users.GetUser(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: %d", ErrUnknownUser, req.UserID)
	}
	if err != nil {
		log.Warn("load user preferences", "err", err)
		return models.ModeAct, nil
	}
	if m, ok := models.NormalizeMode(u.PreferredMode); ok {
		return m, nil
	}
	return models.ModeAct, nil
}
