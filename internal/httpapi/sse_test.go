package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSSEHub_Subscribe_Publish_Unsubscribe(t *testing.T) {
	hub := NewSSEHub()
	ch := hub.Subscribe(0)
	hub.Publish(Event{Type: "task_update", UserID: 3})
	msg := <-ch
	if !strings.Contains(string(msg), `"type":"task_update"`) || !strings.Contains(string(msg), `"user_id":3`) {
		t.Errorf("Publish: got %s", msg)
	}
	hub.Unsubscribe(ch)
	// After unsubscribe, channel is closed
	_, ok := <-ch
	if ok {
		t.Error("expected channel closed after Unsubscribe")
	}
}

func TestSSEHub_UserFilter(t *testing.T) {
	hub := NewSSEHub()
	mine := hub.Subscribe(1)
	defer hub.Unsubscribe(mine)
	hub.Publish(Event{Type: "task_update", UserID: 2})
	hub.Publish(Event{Type: "task_update", UserID: 1, TaskID: 9})
	msg := <-mine
	if !strings.Contains(string(msg), `"task_id":9`) {
		t.Fatalf("expected user 1 event, got %s", msg)
	}
	select {
	case extra := <-mine:
		t.Fatalf("unexpected event for another user: %s", extra)
	default:
	}
}

func TestSSEHub_Handler(t *testing.T) {
	hub := NewSSEHub()
	handler := hub.Handler()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		handler(rec, req)
		close(done)
	}()
	// Wait for handler to send "connected" then stop (avoid reading rec.Body while handler writes - race).
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	sc := bufio.NewScanner(rec.Body)
	var found bool
	for sc.Scan() {
		if strings.Contains(sc.Text(), "connected") {
			found = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !found {
		t.Error("expected response to contain \"connected\"")
	}
}

func TestSSEHub_HandlerBadUser(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSSEHub().Handler()(rec, httptest.NewRequest(http.MethodGet, "/stream?user_id=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}
