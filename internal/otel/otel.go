// Package otel exposes tasktalk's dialogue and task metrics through OpenTelemetry,
// scraped in Prometheus format.
package otel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ServiceName labels every series when the caller passes none.
const ServiceName = "tasktalk"

const instrumentationScope = "github.com/ankittk/tasktalk"

// InitMeterProvider makes a Prometheus-backed provider the global one and returns the
// handler for GET /metrics. serve calls it once; on error the server keeps running and
// /metrics falls back to the plain task counts.
func InitMeterProvider(ctx context.Context, serviceName string) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	res, err := serviceResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	otelglobal.SetMeterProvider(sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), nil
}

func serviceResource(ctx context.Context, name string) (*resource.Resource, error) {
	if name == "" {
		name = ServiceName
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		return nil, fmt.Errorf("metrics resource: %w", err)
	}
	return res, nil
}

// Meter is the meter every tasktalk instrument is created on. Before InitMeterProvider
// it is the no-op global meter.
func Meter() metric.Meter {
	return otelglobal.Meter(instrumentationScope)
}

// Label keys shared by the instruments in metrics.go.
var (
	AttrIntent    = attribute.Key("intent")
	AttrOutcome   = attribute.Key("outcome")
	AttrOperation = attribute.Key("operation")
	AttrStatus    = attribute.Key("status")
	AttrReason    = attribute.Key("reason")
	AttrKind      = attribute.Key("kind")
)
