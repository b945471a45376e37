package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/config"
	"github.com/RowanDark/cryptkit/internal/logging"
	"github.com/RowanDark/cryptkit/internal/observability/tracing"
)

// Swapped out by tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errUsage marks errors that should exit with status 2.
var errUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// exitCode reports err on stderr and maps it to a process status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

// ioFlags are the input and output options shared by most subcommands.
type ioFlags struct {
	in      string
	format  string
	out     string
	verbose bool
}

func addIOFlags(fs *flag.FlagSet, inFormat, outFormat codec.Format) *ioFlags {
	f := &ioFlags{}
	fs.StringVar(&f.in, "in", "", "input file (default stdin)")
	fs.StringVar(&f.format, "format", string(inFormat), "input format: raw, hex, base64, hex-lines, base64-lines")
	fs.StringVar(&f.out, "out", string(outFormat), "output format: raw, hex, base64")
	fs.BoolVar(&f.verbose, "v", false, "verbose diagnostics on stderr")
	return f
}

func (f *ioFlags) inputFormat() (codec.Format, error) {
	format, err := codec.ParseFormat(f.format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return format, nil
}

func (f *ioFlags) outputFormat() (codec.Format, error) {
	format, err := codec.ParseFormat(f.out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return format, nil
}

func (f *ioFlags) open() (io.ReadCloser, error) {
	if f.in == "" || f.in == "-" {
		return io.NopCloser(stdin), nil
	}
	file, err := os.Open(f.in)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return file, nil
}

// read decodes the whole input as one buffer.
func (f *ioFlags) read() ([]byte, error) {
	format, err := f.inputFormat()
	if err != nil {
		return nil, err
	}
	r, err := f.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return codec.Decode(format, data)
}

// readLines decodes the input one buffer per line.
func (f *ioFlags) readLines() ([][]byte, error) {
	format, err := f.inputFormat()
	if err != nil {
		return nil, err
	}
	r, err := f.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return codec.DecodeLines(format, r)
}

func (f *ioFlags) write(buf []byte) error {
	format, err := f.outputFormat()
	if err != nil {
		return err
	}
	text, err := codec.Encode(format, buf)
	if err != nil {
		return err
	}
	if format == codec.FormatRaw {
		_, err = io.WriteString(stdout, text)
		return err
	}
	_, err = fmt.Fprintln(stdout, text)
	return err
}

// session carries the resolved configuration and the loggers a subcommand
// reports through.
type session struct {
	cfg      config.Config
	log      *slog.Logger
	audit    *logging.AuditLogger
	shutdown func(context.Context) error
}

func openSession(ctx context.Context, component string, verbose bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).With("component", component)

	var opts []logging.Option
	if !cfg.Audit.Stdout {
		opts = append(opts, logging.WithoutStdout())
	}
	if cfg.Audit.File != "" {
		opts = append(opts, logging.WithFile(cfg.Audit.File))
	}
	if !cfg.Audit.Stdout && cfg.Audit.File == "" {
		opts = append(opts, logging.WithWriter(io.Discard))
	}
	audit, err := logging.NewAuditLogger(component, opts...)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		FilePath:    cfg.Tracing.File,
	})
	if err != nil {
		_ = audit.Close()
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	logger.Debug("session opened", "run_id", audit.RunID(), "workers", cfg.Workers,
		"audit_file", cfg.Audit.File, "trace_file", cfg.Tracing.File, "aes_hardware", blockmode.HardwareAES())
	return &session{cfg: cfg, log: logger, audit: audit, shutdown: shutdown}, nil
}

func (s *session) Close() {
	if s.shutdown != nil {
		if err := s.shutdown(context.Background()); err != nil {
			s.log.Warn("tracing shutdown failed", "error", err)
		}
	}
	if err := s.audit.Close(); err != nil {
		s.log.Warn("closing audit log failed", "error", err)
	}
}

// record emits an audit event, logging rather than failing when the audit
// sink is broken.
func (s *session) record(event logging.AuditEvent) {
	if err := s.audit.Emit(event); err != nil {
		s.log.Warn("audit emit failed", "event", event.EventType, "error", err)
	}
}

// succeeded records a completed operation.
func (s *session) succeeded(op string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["operation"] = op
	s.record(logging.AuditEvent{
		EventType: logging.EventOperationRun,
		Decision:  logging.DecisionSuccess,
		Metadata:  metadata,
	})
}

// failed records a failed operation and hands err back.
func (s *session) failed(op string, err error) error {
	s.record(logging.AuditEvent{
		EventType: logging.EventOperationFailed,
		Decision:  logging.DecisionFailure,
		Metadata:  map[string]any{"operation": op},
		Reason:    err.Error(),
	})
	return err
}

// keyFlags accept key material as hex or as literal text.
type keyFlags struct {
	hex  string
	text string
}

func addKeyFlags(fs *flag.FlagSet, name string) *keyFlags {
	k := &keyFlags{}
	fs.StringVar(&k.hex, name, "", name+" as hex")
	fs.StringVar(&k.text, name+"-text", "", name+" as literal text")
	return k
}

func (k *keyFlags) bytes(name string, required bool) ([]byte, error) {
	switch {
	case k.hex != "" && k.text != "":
		return nil, usageErrorf("-%s and -%s-text are mutually exclusive", name, name)
	case k.text != "":
		return []byte(k.text), nil
	case k.hex != "":
		b, err := codec.DecodeHex(strings.TrimPrefix(k.hex, "0x"))
		if err != nil {
			return nil, usageErrorf("-%s: %v", name, err)
		}
		return b, nil
	case required:
		return nil, usageErrorf("-%s or -%s-text is required", name, name)
	default:
		return nil, nil
	}
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fmt.Errorf("%w: help requested", errUsage)
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return usageErrorf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}
