package logging

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOperationRun    EventType = "operation_run"
	EventOperationFailed EventType = "operation_failed"
	EventKeyRecovered    EventType = "key_recovered"
	EventECBDetected     EventType = "ecb_detected"
	EventPipelineRun     EventType = "pipeline_run"
)

type Decision string

const (
	DecisionInfo    Decision = "info"
	DecisionSuccess Decision = "success"
	DecisionFailure Decision = "failure"
)

type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Component string         `json:"component"`
	RunID     string         `json:"run_id,omitempty"`
	EventType EventType      `json:"event_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Decision  Decision       `json:"decision,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// sensitiveFields are metadata keys whose values are masked before encoding.
var sensitiveFields = map[string]struct{}{
	"key": {},
	"iv":  {},
}

type Option func(*config) error

type config struct {
	writers          []io.Writer
	closers          []io.Closer
	useDefaultWriter bool
	runID            string
}

func defaultConfig() *config {
	return &config{writers: []io.Writer{os.Stdout}, useDefaultWriter: true}
}

func WithWriter(w io.Writer) Option {
	return func(cfg *config) error {
		if w == nil {
			return errors.New("writer cannot be nil")
		}
		cfg.writers = append(cfg.writers, w)
		return nil
	}
}

// WithFile appends events to path, creating it with owner-only permissions.
func WithFile(path string) Option {
	return func(cfg *config) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		cfg.writers = append(cfg.writers, f)
		cfg.closers = append(cfg.closers, f)
		return nil
	}
}

func WithoutStdout() Option {
	return func(cfg *config) error {
		cfg.useDefaultWriter = false
		filtered := cfg.writers[:0]
		for _, w := range cfg.writers {
			if w == os.Stdout {
				continue
			}
			filtered = append(filtered, w)
		}
		cfg.writers = filtered
		return nil
	}
}

// WithRunID pins the run identifier instead of generating a fresh one.
func WithRunID(id string) Option {
	return func(cfg *config) error {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid run id %q: %w", id, err)
		}
		cfg.runID = id
		return nil
	}
}

type auditCore struct {
	mu      sync.Mutex
	encoder *json.Encoder
	closers []io.Closer
}

// AuditLogger writes one JSON object per event. Loggers derived with
// WithComponent share the encoder and run ID of their parent.
type AuditLogger struct {
	component   string
	runID       string
	core        *auditCore
	ownsClosers bool
}

func NewAuditLogger(component string, opts ...Option) (*AuditLogger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			for _, closer := range cfg.closers {
				_ = closer.Close()
			}
			return nil, err
		}
	}
	if len(cfg.writers) == 0 {
		return nil, errors.New("no writers configured for audit logger")
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	enc := json.NewEncoder(io.MultiWriter(cfg.writers...))
	enc.SetEscapeHTML(false)
	return &AuditLogger{
		component:   component,
		runID:       cfg.runID,
		core:        &auditCore{encoder: enc, closers: cfg.closers},
		ownsClosers: true,
	}, nil
}

func MustNewAuditLogger(component string, opts ...Option) *AuditLogger {
	logger, err := NewAuditLogger(component, opts...)
	if err != nil {
		panic(err)
	}
	return logger
}

// RunID returns the identifier stamped on every event of this logger.
func (l *AuditLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *AuditLogger) Close() error {
	if l == nil || !l.ownsClosers || l.core == nil {
		return nil
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	var firstErr error
	for _, closer := range l.core.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.core.closers = nil
	return firstErr
}

func (l *AuditLogger) Emit(event AuditEvent) error {
	if l == nil {
		return errors.New("nil audit logger")
	}
	if l.core == nil {
		return errors.New("nil audit logger core")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}
	if event.Component == "" {
		event.Component = l.component
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}
	if len(event.Metadata) > 0 {
		event.Metadata = maskMetadata(event.Metadata)
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.encoder.Encode(event)
}

func (l *AuditLogger) WithComponent(component string) *AuditLogger {
	if l == nil || l.core == nil {
		return nil
	}
	return &AuditLogger{
		component:   component,
		runID:       l.runID,
		core:        l.core,
		ownsClosers: false,
	}
}

// MaskKey renders key material as its first and last byte in hex with the
// length between them, e.g. "54..29..65". Keys of two bytes or fewer are
// reduced to their length.
func MaskKey(key []byte) string {
	switch {
	case len(key) == 0:
		return ""
	case len(key) <= 2:
		return fmt.Sprintf("..%d..", len(key))
	}
	return fmt.Sprintf("%s..%d..%s",
		hex.EncodeToString(key[:1]), len(key), hex.EncodeToString(key[len(key)-1:]))
}

func maskMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if _, ok := sensitiveFields[strings.ToLower(k)]; !ok {
			out[k] = v
			continue
		}
		switch val := v.(type) {
		case []byte:
			out[k] = MaskKey(val)
		case string:
			out[k] = MaskKey([]byte(val))
		case byte:
			out[k] = MaskKey([]byte{val})
		default:
			out[k] = "[masked]"
		}
	}
	return out
}
