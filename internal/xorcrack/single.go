package xorcrack

import (
	"context"
	"fmt"
	"runtime"

	"github.com/RowanDark/cryptkit/internal/observability/tracing"
	"github.com/RowanDark/cryptkit/internal/score"
	"github.com/RowanDark/cryptkit/internal/workpool"
)

// KeySpace is the number of single-byte keys searched: every value from
// 0x00 through 0xff inclusive.
const KeySpace = 256

// Candidate is a scored decryption.
type Candidate struct {
	Key       []byte
	Plaintext []byte
	Score     int
}

// BreakSingle XORs ciphertext against every single-byte key and returns the
// highest scoring plaintext. When scores tie, the lowest key wins.
func BreakSingle(ciphertext []byte) (Candidate, error) {
	if len(ciphertext) == 0 {
		return Candidate{}, fmt.Errorf("break single-byte xor: %w", ErrEmptyInput)
	}

	buf := make([]byte, len(ciphertext))
	bestKey := 0
	bestScore := 0
	for k := 0; k < KeySpace; k++ {
		applyByte(buf, ciphertext, byte(k))
		s := score.Bytes(buf)
		if k == 0 || s > bestScore {
			bestKey = k
			bestScore = s
		}
	}

	plaintext := make([]byte, len(ciphertext))
	applyByte(plaintext, ciphertext, byte(bestKey))
	return Candidate{
		Key:       []byte{byte(bestKey)},
		Plaintext: plaintext,
		Score:     bestScore,
	}, nil
}

// LineCandidate is the best single-byte decryption found among many lines.
type LineCandidate struct {
	Candidate
	Line int
}

// Option tunes the parallel searches in this package.
type Option func(*options)

type options struct {
	workers int
}

func defaultOptions() options {
	return options{workers: runtime.NumCPU()}
}

// WithWorkers bounds the goroutines used for a search. Values below one
// select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}

// DetectSingle breaks every line independently and returns the single
// highest scoring decryption with the index of the line it came from. Empty
// lines are skipped; ties go to the lowest line index.
func DetectSingle(ctx context.Context, lines [][]byte, opts ...Option) (LineCandidate, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracing.StartSpan(ctx, "xorcrack.DetectSingle", tracing.WithAttributes(map[string]any{
		"xorcrack.lines": len(lines),
	}))
	defer span.End()

	type outcome struct {
		candidate Candidate
		ok        bool
	}
	results, err := workpool.Map(ctx, cfg.workers, len(lines), func(_ context.Context, i int) (outcome, error) {
		if len(lines[i]) == 0 {
			return outcome{}, nil
		}
		c, err := BreakSingle(lines[i])
		if err != nil {
			return outcome{}, err
		}
		return outcome{candidate: c, ok: true}, nil
	})
	if err != nil {
		span.RecordError(err)
		return LineCandidate{}, fmt.Errorf("detect single-byte xor: %w", err)
	}

	best := LineCandidate{Line: -1}
	for i, res := range results {
		if !res.ok {
			continue
		}
		if best.Line < 0 || res.candidate.Score > best.Score {
			best = LineCandidate{Candidate: res.candidate, Line: i}
		}
	}
	if best.Line < 0 {
		return LineCandidate{}, fmt.Errorf("detect single-byte xor: %w", ErrNoCandidates)
	}

	span.SetAttribute("xorcrack.line", best.Line)
	span.SetAttribute("xorcrack.score", best.Score)
	return best, nil
}
