package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ankittk/tasktalk/internal/otel"
	"github.com/ankittk/tasktalk/pkg/models"
)

// Event is one message on the stream. The UI refetches the user's tasks on task_update.
type Event struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id,omitempty"`
	TaskID int64  `json:"task_id,omitempty"`
}

// SSEHub fans events out to stream subscribers. A subscriber registered for a user
// only receives that user's events; user 0 receives everything.
type SSEHub struct {
	mu   sync.RWMutex
	subs map[chan []byte]int64
}

func NewSSEHub() *SSEHub {
	return &SSEHub{subs: make(map[chan []byte]int64)}
}

func (h *SSEHub) Subscribe(userID int64) chan []byte {
	ch := make(chan []byte, models.DefaultSSEChannelBuffer)
	h.mu.Lock()
	h.subs[ch] = userID
	h.mu.Unlock()
	otel.AddSSEConnection()
	return ch
}

func (h *SSEHub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
		otel.RemoveSSEConnection()
	}
	h.mu.Unlock()
}

// Publish sends e to every matching subscriber without blocking.
func (h *SSEHub) Publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	otel.RecordSSEEvent(context.Background())
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, uid := range h.subs {
		if uid != 0 && e.UserID != 0 && uid != e.UserID {
			continue
		}
		select {
		case ch <- b:
		default:
			// Drop if subscriber is too slow; prevents global backpressure.
		}
	}
}

// Handler serves GET /stream. ?user_id=N limits the stream to one user.
func (h *SSEHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		var userID int64
		if s := r.URL.Query().Get("user_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id <= 0 {
				writeJSONError(w, http.StatusBadRequest, "invalid user_id")
				return
			}
			userID = id
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := h.Subscribe(userID)
		defer h.Unsubscribe(ch)

		// Initial ping so clients know the stream is live.
		_, _ = fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected"}`)
		flusher.Flush()

		keepalive := time.NewTicker(30 * time.Second)
		defer keepalive.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepalive.C:
				_, _ = fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_, _ = fmt.Fprintf(w, "data: %s\n\n", string(msg))
				flusher.Flush()
			}
		}
	}
}
