package xorcrack

import (
	"context"
	"fmt"

	"github.com/RowanDark/cryptkit/internal/observability/tracing"
	"github.com/RowanDark/cryptkit/internal/transpose"
	"github.com/RowanDark/cryptkit/internal/workpool"
)

// Result is the outcome of a repeating-key XOR break.
type Result struct {
	Keysize   int    `json:"keysize"`
	Key       []byte `json:"key"`
	Plaintext []byte `json:"plaintext"`
	// Score is the integer mean of the per-column single-byte scores.
	Score int `json:"score"`
}

type keysizeOutcome struct {
	key   []byte
	score int
	ok    bool
}

// BreakRepeating recovers a repeating XOR key. For each candidate length the
// ciphertext is split into columns sharing one key byte, each column is broken
// as single-byte XOR, and the column keys are joined. The key whose mean column
// score is highest wins; ties go to the earlier candidate. The plaintext is the
// whole ciphertext XORed with the winning key.
//
// Candidate lengths longer than the ciphertext are ignored. Lengths are
// evaluated concurrently; the result matches a sequential search.
func BreakRepeating(ctx context.Context, ciphertext []byte, keysizes []int, opts ...Option) (Result, error) {
	if len(ciphertext) == 0 {
		return Result{}, fmt.Errorf("break repeating-key xor: %w", ErrEmptyInput)
	}
	if len(keysizes) == 0 {
		return Result{}, fmt.Errorf("break repeating-key xor: %w", ErrNoCandidates)
	}
	for _, k := range keysizes {
		if k < 1 {
			return Result{}, fmt.Errorf("break repeating-key xor: %w: %d", ErrInvalidKeysize, k)
		}
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracing.StartSpan(ctx, "xorcrack.BreakRepeating", tracing.WithAttributes(map[string]any{
		"xorcrack.ciphertext_len": len(ciphertext),
		"xorcrack.candidates":     len(keysizes),
	}))
	defer span.End()

	outcomes, err := workpool.Map(ctx, cfg.workers, len(keysizes), func(_ context.Context, i int) (keysizeOutcome, error) {
		k := keysizes[i]
		if k > len(ciphertext) {
			return keysizeOutcome{}, nil
		}
		return breakKeysize(ciphertext, k)
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("break repeating-key xor: %w", err)
	}

	best := -1
	for i, o := range outcomes {
		if !o.ok {
			continue
		}
		if best < 0 || o.score > outcomes[best].score {
			best = i
		}
	}
	if best < 0 {
		return Result{}, fmt.Errorf("break repeating-key xor: %w: every keysize exceeds %d bytes", ErrNoCandidates, len(ciphertext))
	}

	key := outcomes[best].key
	plaintext, err := Apply(ciphertext, key)
	if err != nil {
		return Result{}, err
	}

	span.SetAttribute("xorcrack.keysize", len(key))
	span.SetAttribute("xorcrack.score", outcomes[best].score)
	return Result{
		Keysize:   keysizes[best],
		Key:       key,
		Plaintext: plaintext,
		Score:     outcomes[best].score,
	}, nil
}

func breakKeysize(ciphertext []byte, k int) (keysizeOutcome, error) {
	chunks, err := transpose.Partition(ciphertext, k)
	if err != nil {
		return keysizeOutcome{}, err
	}
	columns := transpose.Transpose(chunks)

	key := make([]byte, len(columns))
	total := 0
	for i, column := range columns {
		c, err := BreakSingle(column)
		if err != nil {
			return keysizeOutcome{}, fmt.Errorf("keysize %d column %d: %w", k, i, err)
		}
		key[i] = c.Key[0]
		total += c.Score
	}
	return keysizeOutcome{key: key, score: total / len(columns), ok: true}, nil
}
