package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/config"
	"github.com/RowanDark/cryptkit/internal/logging"
	"github.com/RowanDark/cryptkit/internal/observability/tracing"
	"github.com/RowanDark/cryptkit/internal/xorcrack"
)

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runXOR(args []string) int {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatHex, codec.FormatHex)
	key := addKeyFlags(fs, "key")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}
	keyBytes, err := key.bytes("key", true)
	if err != nil {
		return exitCode(err)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "xor", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("xor", err))
	}
	out, err := xorcrack.Apply(input, keyBytes)
	if err != nil {
		return exitCode(sess.failed("xor", err))
	}
	sess.succeeded("xor", map[string]any{"bytes": len(out), "key": keyBytes})
	return exitCode(iof.write(out))
}

func runHamming(args []string) int {
	fs := flag.NewFlagSet("hamming", flag.ContinueOnError)
	hexInput := fs.Bool("hex", false, "arguments are hex encoded")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "hamming requires exactly two arguments")
		return 2
	}

	a, b := []byte(fs.Arg(0)), []byte(fs.Arg(1))
	if *hexInput {
		var err error
		if a, err = codec.DecodeHex(fs.Arg(0)); err != nil {
			return exitCode(usageErrorf("first argument: %v", err))
		}
		if b, err = codec.DecodeHex(fs.Arg(1)); err != nil {
			return exitCode(usageErrorf("second argument: %v", err))
		}
	}
	d, err := xorcrack.Distance(a, b)
	if err != nil {
		return exitCode(err)
	}
	fmt.Fprintln(stdout, d)
	return 0
}

type candidateOutput struct {
	Line      *int   `json:"line,omitempty"`
	Key       string `json:"key"`
	Score     int    `json:"score"`
	Plaintext string `json:"plaintext"`
}

func printCandidate(c candidateOutput, asJSON bool) error {
	if asJSON {
		return writeJSON(c)
	}
	if c.Line != nil {
		fmt.Fprintf(stdout, "line: %d\n", *c.Line)
	}
	fmt.Fprintf(stdout, "key: %s\n", c.Key)
	fmt.Fprintf(stdout, "score: %d\n", c.Score)
	fmt.Fprintf(stdout, "plaintext: %s\n", c.Plaintext)
	return nil
}

func runBreakSingle(args []string) int {
	fs := flag.NewFlagSet("break-single", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatHex, codec.FormatRaw)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "xorcrack", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("break-single", err))
	}
	_, span := tracing.StartSpan(ctx, "cryptkit.break-single", tracing.WithAttributes(map[string]any{
		"input.bytes": len(input),
	}))
	c, err := xorcrack.BreakSingle(input)
	if err != nil {
		span.RecordError(err)
		span.End()
		return exitCode(sess.failed("break-single", err))
	}
	span.SetAttribute("xorcrack.score", c.Score)
	span.End()

	sess.log.Debug("single-byte key recovered", "key", fmt.Sprintf("0x%02x", c.Key), "score", c.Score)
	sess.record(logging.AuditEvent{
		EventType: logging.EventKeyRecovered,
		Decision:  logging.DecisionSuccess,
		Metadata:  map[string]any{"operation": "break-single", "key": c.Key, "score": c.Score},
	})
	return exitCode(printCandidate(candidateOutput{
		Key:       fmt.Sprintf("0x%02x", c.Key),
		Score:     c.Score,
		Plaintext: string(c.Plaintext),
	}, *asJSON))
}

func runDetectSingle(args []string) int {
	fs := flag.NewFlagSet("detect-single", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatHexLines, codec.FormatRaw)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "xorcrack", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	lines, err := iof.readLines()
	if err != nil {
		return exitCode(sess.failed("detect-single", err))
	}
	sess.log.Debug("scanning lines", "lines", len(lines), "workers", sess.cfg.Workers)
	best, err := xorcrack.DetectSingle(ctx, lines, xorcrack.WithWorkers(sess.cfg.Workers))
	if err != nil {
		return exitCode(sess.failed("detect-single", err))
	}

	sess.record(logging.AuditEvent{
		EventType: logging.EventKeyRecovered,
		Decision:  logging.DecisionSuccess,
		Metadata: map[string]any{
			"operation": "detect-single",
			"line":      best.Line,
			"key":       best.Key,
			"score":     best.Score,
		},
	})
	line := best.Line
	return exitCode(printCandidate(candidateOutput{
		Line:      &line,
		Key:       fmt.Sprintf("0x%02x", best.Key),
		Score:     best.Score,
		Plaintext: strings.TrimRight(string(best.Plaintext), "\n"),
	}, *asJSON))
}

// keysizeFlags override the configured keysize search.
type keysizeFlags struct {
	min, max, top, pairs int
	normalization        string
}

func addKeysizeFlags(fs *flag.FlagSet) *keysizeFlags {
	k := &keysizeFlags{}
	fs.IntVar(&k.min, "min", 0, "smallest key length to try (default from config)")
	fs.IntVar(&k.max, "max", 0, "largest key length to try (default from config)")
	fs.IntVar(&k.top, "top", 0, "number of key lengths to keep (default from config)")
	fs.IntVar(&k.pairs, "pairs", 0, "adjacent chunk pairs to compare (default from config)")
	fs.StringVar(&k.normalization, "normalization", "", "integer or fractional (default from config)")
	return k
}

// resolve layers the flags over cfg and returns estimator options.
func (k *keysizeFlags) resolve(cfg config.KeysizeConfig) ([]xorcrack.EstimateOption, error) {
	if k.min != 0 {
		cfg.Min = k.min
	}
	if k.max != 0 {
		cfg.Max = k.max
	}
	if k.top != 0 {
		cfg.Top = k.top
	}
	if k.pairs != 0 {
		cfg.Pairs = k.pairs
	}
	if k.normalization != "" {
		cfg.Normalization = strings.ToLower(k.normalization)
	}
	switch cfg.Normalization {
	case config.NormalizationInteger, config.NormalizationFractional:
	default:
		return nil, usageErrorf("unknown normalization %q", cfg.Normalization)
	}

	opts := []xorcrack.EstimateOption{
		xorcrack.WithRange(cfg.Min, cfg.Max),
		xorcrack.WithTop(cfg.Top),
		xorcrack.WithPairs(cfg.Pairs),
	}
	if cfg.Fractional() {
		opts = append(opts, xorcrack.WithFractional())
	}
	return opts, nil
}

func runKeysize(args []string) int {
	fs := flag.NewFlagSet("keysize", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatBase64, codec.FormatRaw)
	ks := addKeysizeFlags(fs)
	asJSON := fs.Bool("json", false, "print candidates as JSON")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "xorcrack", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	opts, err := ks.resolve(sess.cfg.Keysize)
	if err != nil {
		return exitCode(err)
	}
	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("keysize", err))
	}
	candidates, err := xorcrack.EstimateKeysize(input, opts...)
	if err != nil {
		return exitCode(sess.failed("keysize", err))
	}
	sess.succeeded("keysize", map[string]any{"candidates": xorcrack.Sizes(candidates)})

	if *asJSON {
		return exitCode(writeJSON(candidates))
	}
	for _, c := range candidates {
		fmt.Fprintf(stdout, "%d\t%.4f\n", c.Size, c.Distance)
	}
	return 0
}

type repeatingOutput struct {
	Keysize   int    `json:"keysize"`
	Key       string `json:"key"`
	Score     int    `json:"score"`
	Plaintext string `json:"plaintext"`
}

func runBreakRepeating(args []string) int {
	fs := flag.NewFlagSet("break-repeating", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatBase64, codec.FormatRaw)
	ks := addKeysizeFlags(fs)
	keysize := fs.Int("keysize", 0, "skip estimation and use this key length")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}
	if *keysize < 0 {
		return exitCode(usageErrorf("-keysize must be positive"))
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "xorcrack", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("break-repeating", err))
	}

	sizes := []int{*keysize}
	if *keysize == 0 {
		opts, err := ks.resolve(sess.cfg.Keysize)
		if err != nil {
			return exitCode(err)
		}
		candidates, err := xorcrack.EstimateKeysize(input, opts...)
		if err != nil {
			return exitCode(sess.failed("break-repeating", err))
		}
		sizes = xorcrack.Sizes(candidates)
		sess.log.Debug("keysize candidates", "sizes", sizes)
	}

	res, err := xorcrack.BreakRepeating(ctx, input, sizes, xorcrack.WithWorkers(sess.cfg.Workers))
	if err != nil {
		return exitCode(sess.failed("break-repeating", err))
	}
	sess.record(logging.AuditEvent{
		EventType: logging.EventKeyRecovered,
		Decision:  logging.DecisionSuccess,
		Metadata: map[string]any{
			"operation": "break-repeating",
			"keysize":   res.Keysize,
			"key":       res.Key,
			"score":     res.Score,
		},
	})

	out := repeatingOutput{
		Keysize:   res.Keysize,
		Key:       string(res.Key),
		Score:     res.Score,
		Plaintext: string(res.Plaintext),
	}
	if *asJSON {
		return exitCode(writeJSON(out))
	}
	fmt.Fprintf(stdout, "keysize: %d\n", out.Keysize)
	fmt.Fprintf(stdout, "key: %q\n", out.Key)
	fmt.Fprintf(stdout, "score: %d\n", out.Score)
	fmt.Fprintln(stdout, "plaintext:")
	fmt.Fprint(stdout, out.Plaintext)
	return 0
}
