// Package httpapi serves the tasktalk HTTP API: users, task CRUD, the chat endpoint,
// assistant mode settings and the event stream.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ankittk/tasktalk/internal/action"
	"github.com/ankittk/tasktalk/internal/dialogue"
	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/llm"
	"github.com/ankittk/tasktalk/internal/store"
	"github.com/ankittk/tasktalk/internal/store/postgres"
	"github.com/ankittk/tasktalk/pkg/models"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (UI dev server on a different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key, DB, model, metrics).
type ServerOptions struct {
	Home   string
	Addr   string
	Dev    bool
	APIKey string // if set, require X-API-Key header or query api_key

	DBDriver string      // "sqlite" (default) or "postgres"
	DBURL    string      // for postgres: connection string (or set DATABASE_URL env)
	Store    store.Store // if set, used instead of opening DBDriver/DBURL

	// Model answers intent extraction and writes confirmations. Nil makes every chat
	// turn reply with the unavailable apology.
	Model           llm.Completer
	Tables          *heuristics.Tables // nil uses the embedded defaults
	DefaultMode     string             // preferred mode for new users (default act)
	SessionCapacity int                // users whose conversation is kept in memory
	Logger          *slog.Logger

	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
}

// App holds the HTTP server, SSE hub, store and dialogue coordinator.
type App struct {
	Server      *http.Server
	Hub         *SSEHub
	Store       store.Store
	Coordinator *dialogue.Coordinator
	Home        string
}

// NewApp opens the store (unless given), wires the dialogue engine and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	st := opts.Store
	if st == nil {
		var err error
		if opts.DBDriver == "postgres" {
			st, err = postgres.Open(opts.DBURL)
		} else {
			st, err = store.Open(opts.Home)
		}
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tables := opts.Tables
	if tables == nil {
		tables = heuristics.Default()
	}
	defaultMode, ok := models.NormalizeMode(opts.DefaultMode)
	if !ok {
		defaultMode = models.ModeAct
	}

	execOpts := []action.Option{action.WithLogger(logger)}
	var ex dialogue.Extractor = intent.NewExtractor(nil)
	if opts.Model != nil {
		ex = intent.NewExtractor(opts.Model)
		execOpts = append(execOpts, action.WithSummarizer(&action.LLMSummarizer{Model: opts.Model}))
	}
	coord := dialogue.New(ex, action.New(st, tables, execOpts...), st,
		dialogue.WithLogger(logger),
		dialogue.WithTables(tables),
		dialogue.WithSessions(dialogue.NewSessionStore(opts.SessionCapacity, 0)),
	)

	app := &App{Hub: NewSSEHub(), Store: st, Coordinator: coord, Home: opts.Home}
	h := &handlers{store: st, hub: app.Hub, coord: coord, defaultMode: defaultMode, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("GET /metrics", h.plainMetrics)
	}
	mux.HandleFunc("GET /stream", app.Hub.Handler())
	h.register(mux)

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(logger, handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "tasktalk")
	}
	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat turns wait on the hosted model.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	app.Server.RegisterOnShutdown(func() {
		_ = st.Close()
	})
	return app, nil
}

// plainMetrics is the /metrics fallback when OTel is disabled.
func (h *handlers) plainMetrics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountTasksByStatus(r.Context())
	if err != nil {
		h.logger.Warn("count tasks", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "metrics unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "# TYPE tasktalk_tasks_total gauge\n")
	for _, s := range []string{models.StatusTodo, models.StatusInProgress, models.StatusDone, models.StatusArchived} {
		_, _ = fmt.Fprintf(w, "tasktalk_tasks_total{status=%q} %d\n", s, counts[s])
	}
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		logger.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// decodeJSON reads the body into v, reporting an oversized body as 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
