package tracing

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanRecord is the JSON line written for each finished span.
type SpanRecord struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Name         string         `json:"name"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	Status       string         `json:"status"`
	StatusMsg    string         `json:"status_message,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
}

type fileExporter struct {
	mu  sync.Mutex
	fw  *os.File
	enc *json.Encoder
}

var _ sdktrace.SpanExporter = (*fileExporter)(nil)

func newFileExporter(path string) (*fileExporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileExporter{fw: f, enc: json.NewEncoder(f)}, nil
}

func (f *fileExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fw == nil {
		return nil
	}
	for _, span := range spans {
		if err := f.enc.Encode(recordFromReadOnly(span)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fileExporter) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fw == nil {
		return nil
	}
	err := f.fw.Close()
	f.fw = nil
	return err
}

func recordFromReadOnly(span sdktrace.ReadOnlySpan) SpanRecord {
	sc := span.SpanContext()

	attrs := make(map[string]any, len(span.Attributes()))
	for _, attr := range span.Attributes() {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	status := "unset"
	switch span.Status().Code {
	case codes.Ok:
		status = "ok"
	case codes.Error:
		status = "error"
	}

	parentID := ""
	if parent := span.Parent(); parent.IsValid() {
		parentID = parent.SpanID().String()
	}

	return SpanRecord{
		TraceID:      sc.TraceID().String(),
		SpanID:       sc.SpanID().String(),
		ParentSpanID: parentID,
		Name:         span.Name(),
		Attributes:   attrs,
		Status:       status,
		StatusMsg:    span.Status().Description,
		StartTime:    span.StartTime(),
		EndTime:      span.EndTime(),
	}
}
