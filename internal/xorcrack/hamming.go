package xorcrack

import (
	"fmt"
	"math/bits"
)

// Distance counts the differing bits between two equal-length buffers.
func Distance(a, b []byte) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hamming distance: %w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	var n int
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return n, nil
}
