// Package tracing wires OpenTelemetry spans around cryptanalysis runs and
// optionally persists finished spans as JSON lines.
package tracing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/RowanDark/cryptkit"

// Config controls how tracing is initialised for the process.
type Config struct {
	// ServiceName is recorded on exported spans to identify the emitting binary.
	ServiceName string
	// SampleRatio controls probabilistic sampling for root spans. Values outside
	// [0,1] are clamped; 0 disables tracing.
	SampleRatio float64
	// FilePath receives a JSONL copy of finished spans. Empty disables the file.
	FilePath string
}

var (
	globalMu     sync.RWMutex
	globalTracer *Tracer
)

// Setup configures the global tracer. The returned shutdown function must be
// invoked before exit so buffered spans are flushed.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	tracer, err := newTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if tracer == nil {
		return func(context.Context) error { return nil }, nil
	}

	globalMu.Lock()
	if globalTracer != nil {
		_ = globalTracer.Shutdown(ctx)
	}
	globalTracer = tracer
	globalMu.Unlock()

	otel.SetTracerProvider(tracer.provider)

	return func(ctx context.Context) error {
		globalMu.Lock()
		if globalTracer == tracer {
			globalTracer = nil
		}
		globalMu.Unlock()
		return tracer.Shutdown(ctx)
	}, nil
}

// CurrentTracer returns the active tracer, or nil if tracing is disabled.
func CurrentTracer() *Tracer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalTracer
}

// Tracer represents the process level tracing configuration.
type Tracer struct {
	provider    *sdktrace.TracerProvider
	tracer      trace.Tracer
	serviceName string
}

func newTracer(ctx context.Context, cfg Config) (*Tracer, error) {
	ratio := math.Max(0, math.Min(1, cfg.SampleRatio))
	if ratio == 0 {
		return nil, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "cryptkit"
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}

	if path := strings.TrimSpace(cfg.FilePath); path != "" {
		exp, err := newFileExporter(path)
		if err != nil {
			return nil, fmt.Errorf("open span file: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp)))
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)
	return &Tracer{
		provider:    provider,
		tracer:      provider.Tracer(instrumentationName),
		serviceName: serviceName,
	}, nil
}

// Shutdown flushes exporters and releases resources.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return t.provider.Shutdown(shutdownCtx)
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	if t == nil {
		return ""
	}
	return t.serviceName
}
