// Package telemetry holds the service's metric instruments: OpenTelemetry
// counters for domain events and Prometheus collectors for HTTP traffic.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tenant-registry/backend"

// Metrics holds the OpenTelemetry instruments recorded by the service layer.
type Metrics struct {
	EntitiesCreated metric.Int64Counter
	StorageErrors   metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the process-wide instruments, creating them on first
// use against the global meter provider.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = newMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}
	var err error

	m.EntitiesCreated, err = meter.Int64Counter(
		"registry.entities.created",
		metric.WithDescription("Entities successfully created"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.StorageErrors, err = meter.Int64Counter(
		"registry.storage.errors",
		metric.WithDescription("Storage operations that failed for reasons other than not-found or conflict"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return m
}

// RecordCreated counts one created entity of the given kind.
func (m *Metrics) RecordCreated(ctx context.Context, kind string) {
	if m == nil || m.EntitiesCreated == nil {
		return
	}
	m.EntitiesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", kind)))
}

// RecordStorageError counts one unclassified storage failure.
func (m *Metrics) RecordStorageError(ctx context.Context, kind, op string) {
	if m == nil || m.StorageErrors == nil {
		return
	}
	m.StorageErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", kind),
		attribute.String("op", op),
	))
}
