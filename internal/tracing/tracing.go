// Package tracing installs the global OpenTelemetry tracer provider used by
// the task service spans.
package tracing

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nhle/taskweb/internal/model"
)

// LogExporter writes finished spans to a logrus logger, one entry per span.
type LogExporter struct {
	logger *log.Logger
}

// NewLogExporter returns an exporter writing to logger.
func NewLogExporter(logger *log.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := log.Fields{
			"span":        s.Name(),
			"trace_id":    s.SpanContext().TraceID().String(),
			"span_id":     s.SpanContext().SpanID().String(),
			"duration_ms": s.EndTime().Sub(s.StartTime()).Milliseconds(),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}

		entry := e.logger.WithFields(fields)
		if status := s.Status(); status.Code == codes.Error {
			entry.WithField("error", status.Description).Warn("trace.span")
			continue
		}
		entry.Info("trace.span")
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error { return nil }

// Setup installs the tracer provider selected by cfg and returns a function
// that flushes and stops it. With the "none" exporter the global no-op
// provider is left in place.
func Setup(cfg model.TracingConfig, logger *log.Logger) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "", model.TracingExporterNone:
		return func(context.Context) error { return nil }, nil
	case model.TracingExporterLog:
		exporter = NewLogExporter(logger)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	logger.WithField("exporter", cfg.Exporter).Info("tracing.enabled")
	return tp.Shutdown, nil
}
