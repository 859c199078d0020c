package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce       sync.Once
	taskOpsCounter        metric.Int64Counter
	turnsCounter          metric.Int64Counter
	turnDuration          metric.Float64Histogram
	clarificationsCounter metric.Int64Counter
	extractionFailures    metric.Int64Counter
	confirmationFallbacks metric.Int64Counter
	sseConnectionsGauge   metric.Int64ObservableGauge
	sseEventsCounter      metric.Int64Counter
	sseConnections        int64
	sseConnectionsMu      sync.Mutex
)

// InitMetrics creates the instruments. Only the first call does anything.
// Call after InitMeterProvider; until then every Record* is a no-op.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		taskOpsCounter, err = m.Int64Counter("tasktalk_task_operations_total", metric.WithDescription("Task operations executed, by operation and result"))
		if err != nil {
			return
		}
		turnsCounter, err = m.Int64Counter("tasktalk_turns_total", metric.WithDescription("Dialogue turns, by intent and outcome"))
		if err != nil {
			return
		}
		turnDuration, err = m.Float64Histogram("tasktalk_turn_duration_seconds", metric.WithDescription("Dialogue turn duration in seconds"))
		if err != nil {
			return
		}
		clarificationsCounter, err = m.Int64Counter("tasktalk_clarifications_total", metric.WithDescription("Turns held back to ask the user for more information"))
		if err != nil {
			return
		}
		extractionFailures, err = m.Int64Counter("tasktalk_extraction_failures_total", metric.WithDescription("Intent extractions that fell back to conversation"))
		if err != nil {
			return
		}
		confirmationFallbacks, err = m.Int64Counter("tasktalk_confirmation_fallbacks_total", metric.WithDescription("Confirmations written from a template because the summarizer failed"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("tasktalk_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("tasktalk_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
	})
	return err
}

// RecordTaskOp records one executed task operation (task_create, task_list, ...).
func RecordTaskOp(ctx context.Context, op, status string) {
	if taskOpsCounter == nil {
		return
	}
	taskOpsCounter.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op), AttrStatus.String(status)))
}

// RecordTurn records a finished dialogue turn and its duration.
func RecordTurn(ctx context.Context, intent, outcome string, d time.Duration) {
	if turnsCounter != nil {
		turnsCounter.Add(ctx, 1, metric.WithAttributes(AttrIntent.String(intent), AttrOutcome.String(outcome)))
	}
	if turnDuration != nil {
		turnDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrIntent.String(intent)))
	}
}

// RecordClarification records a turn that asked the user for more information.
func RecordClarification(ctx context.Context, reason string) {
	if clarificationsCounter != nil {
		clarificationsCounter.Add(ctx, 1, metric.WithAttributes(AttrReason.String(reason)))
	}
}

// RecordExtractionFailure records a model reply that could not be used; kind is
// "unavailable" or "unparseable".
func RecordExtractionFailure(ctx context.Context, kind string) {
	if extractionFailures != nil {
		extractionFailures.Add(ctx, 1, metric.WithAttributes(AttrKind.String(kind)))
	}
}

// RecordConfirmationFallback records a templated confirmation.
func RecordConfirmationFallback(ctx context.Context, intent string) {
	if confirmationFallbacks != nil {
		confirmationFallbacks.Add(ctx, 1, metric.WithAttributes(AttrIntent.String(intent)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// TaskCountFunc returns task counts keyed by status. Used for the tasktalk_tasks_total gauge.
type TaskCountFunc func(ctx context.Context) (map[string]int64, error)

// gaugeStatuses are always reported, with zero when absent from the counts.
var gaugeStatuses = []string{"todo", "in_progress", "done", "archived"}

// InitMetricsWithTaskCount creates instruments and optionally registers the task gauge.
// If taskCount is nil, task gauges are not reported.
func InitMetricsWithTaskCount(ctx context.Context, taskCount TaskCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if taskCount == nil {
		return nil
	}
	m := Meter()
	tasksGauge, err := m.Float64ObservableGauge("tasktalk_tasks_total", metric.WithDescription("Number of tasks by status"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		counts, err := taskCount(ctx)
		if err != nil {
			return err
		}
		for _, s := range gaugeStatuses {
			o.ObserveFloat64(tasksGauge, float64(counts[s]), metric.WithAttributes(AttrStatus.String(s)))
		}
		return nil
	}, tasksGauge)
	return err
}
