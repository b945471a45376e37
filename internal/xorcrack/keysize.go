package xorcrack

import (
	"fmt"
	"sort"
)

// Default keysize search parameters.
const (
	DefaultMinKeysize = 2
	DefaultMaxKeysize = 60
	DefaultTop        = 10
	DefaultPairs      = 4
)

// KeysizeCandidate pairs a key length with its average normalized Hamming
// distance. Lower distances are more likely.
type KeysizeCandidate struct {
	Size     int     `json:"size"`
	Distance float64 `json:"distance"`
}

// EstimateOption tunes EstimateKeysize.
type EstimateOption func(*estimateConfig)

type estimateConfig struct {
	min        int
	max        int
	top        int
	pairs      int
	fractional bool
}

// WithRange limits the candidate key lengths to [lo, hi].
func WithRange(lo, hi int) EstimateOption {
	return func(c *estimateConfig) {
		c.min = lo
		c.max = hi
	}
}

// WithTop sets how many ranked candidates are returned.
func WithTop(n int) EstimateOption {
	return func(c *estimateConfig) { c.top = n }
}

// WithPairs sets how many adjacent chunk pairs are compared per length.
func WithPairs(n int) EstimateOption {
	return func(c *estimateConfig) { c.pairs = n }
}

// WithFractional normalizes each pair distance with floating point division
// instead of integer division. Integer normalization collapses most lengths
// into a handful of equal distances on real ciphertext.
func WithFractional() EstimateOption {
	return func(c *estimateConfig) { c.fractional = true }
}

// EstimateKeysize ranks likely repeating-key lengths. For each length k the
// first pairs+1 chunks of k bytes are compared pairwise (0 with 1, 1 with 2,
// and so on); each distance is divided by k, the quotients summed, and the
// sum divided by the pair count. Candidates are sorted by ascending
// distance, ties keeping ascending length order.
//
// Lengths for which buf holds fewer than pairs+1 full chunks are skipped.
func EstimateKeysize(buf []byte, opts ...EstimateOption) ([]KeysizeCandidate, error) {
	cfg := estimateConfig{
		min:   DefaultMinKeysize,
		max:   DefaultMaxKeysize,
		top:   DefaultTop,
		pairs: DefaultPairs,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.min < 1 || cfg.max < cfg.min {
		return nil, fmt.Errorf("estimate keysize: %w: range [%d, %d]", ErrInvalidKeysize, cfg.min, cfg.max)
	}
	if cfg.top < 1 || cfg.pairs < 1 {
		return nil, fmt.Errorf("estimate keysize: top and pairs must be positive (top=%d, pairs=%d)", cfg.top, cfg.pairs)
	}

	candidates := make([]KeysizeCandidate, 0, cfg.max-cfg.min+1)
	for k := cfg.min; k <= cfg.max; k++ {
		if len(buf) < (cfg.pairs+1)*k {
			continue
		}
		candidates = append(candidates, KeysizeCandidate{
			Size:     k,
			Distance: normalizedDistance(buf, k, cfg),
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("estimate keysize: %w: %d bytes cannot supply %d chunks of %d bytes",
			ErrInputTooShort, len(buf), cfg.pairs+1, cfg.min)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > cfg.top {
		candidates = candidates[:cfg.top]
	}
	return candidates, nil
}

func normalizedDistance(buf []byte, k int, cfg estimateConfig) float64 {
	chunk := func(i int) []byte { return buf[i*k : (i+1)*k] }

	if cfg.fractional {
		var sum float64
		for i := 0; i < cfg.pairs; i++ {
			// Chunks are equal length by construction.
			d, _ := Distance(chunk(i), chunk(i+1))
			sum += float64(d) / float64(k)
		}
		return sum / float64(cfg.pairs)
	}

	var sum int
	for i := 0; i < cfg.pairs; i++ {
		d, _ := Distance(chunk(i), chunk(i+1))
		sum += d / k
	}
	return float64(sum / cfg.pairs)
}

// Sizes extracts the key lengths from ranked candidates, preserving order.
func Sizes(candidates []KeysizeCandidate) []int {
	sizes := make([]int, len(candidates))
	for i, c := range candidates {
		sizes[i] = c.Size
	}
	return sizes
}
