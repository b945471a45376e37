package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span represents an in-flight trace span.
type Span interface {
	End()
	SetAttribute(key string, value any)
	RecordError(err error)
	TraceID() string
}

type spanConfig struct {
	attributes map[string]any
}

// SpanStartOption configures start behaviour for spans.
type SpanStartOption func(*spanConfig)

// WithAttributes attaches attributes to the span on start.
func WithAttributes(attrs map[string]any) SpanStartOption {
	return func(cfg *spanConfig) {
		if len(attrs) == 0 {
			return
		}
		if cfg.attributes == nil {
			cfg.attributes = make(map[string]any, len(attrs))
		}
		for k, v := range attrs {
			cfg.attributes[k] = v
		}
	}
}

// StartSpan begins a new span derived from ctx. When tracing is disabled the
// returned span is a no-op and ctx is returned unchanged.
func StartSpan(ctx context.Context, name string, opts ...SpanStartOption) (context.Context, Span) {
	tracer := CurrentTracer()
	if tracer == nil || tracer.tracer == nil {
		return ctx, noopSpan{}
	}

	var cfg spanConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var options []trace.SpanStartOption
	if len(cfg.attributes) > 0 {
		options = append(options, trace.WithAttributes(mapToAttributes(cfg.attributes)...))
	}

	ctx, span := tracer.tracer.Start(ctx, name, options...)
	return ctx, &otelSpanWrapper{span: span}
}

type otelSpanWrapper struct {
	span trace.Span
}

func (s *otelSpanWrapper) End() {
	s.span.End()
}

func (s *otelSpanWrapper) SetAttribute(key string, value any) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	s.span.SetAttributes(attribute.KeyValue{Key: attribute.Key(key), Value: attributeValue(value)})
}

func (s *otelSpanWrapper) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpanWrapper) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) SetAttribute(string, any) {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) TraceID() string          { return "" }

func mapToAttributes(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.KeyValue{Key: attribute.Key(k), Value: attributeValue(v)})
	}
	return kvs
}

func attributeValue(value any) attribute.Value {
	switch v := value.(type) {
	case string:
		return attribute.StringValue(v)
	case bool:
		return attribute.BoolValue(v)
	case int:
		return attribute.IntValue(v)
	case int64:
		return attribute.Int64Value(v)
	case float64:
		return attribute.Float64Value(v)
	case fmt.Stringer:
		return attribute.StringValue(v.String())
	default:
		return attribute.StringValue(fmt.Sprintf("%v", v))
	}
}
