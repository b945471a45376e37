// Package ecbdetect flags ciphertexts whose repeated blocks betray ECB mode.
package ecbdetect

import (
	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/transpose"
)

// RepeatedBlocks counts the 16-byte blocks of ciphertext that duplicate an
// earlier block. A trailing partial block takes part in the comparison.
func RepeatedBlocks(ciphertext []byte) int {
	blocks, err := transpose.Partition(ciphertext, blockmode.BlockSize)
	if err != nil {
		return 0
	}
	seen := make(map[string]struct{}, len(blocks))
	repeats := 0
	for _, b := range blocks {
		if _, ok := seen[string(b)]; ok {
			repeats++
			continue
		}
		seen[string(b)] = struct{}{}
	}
	return repeats
}

// HasRepeatedBlocks reports whether any two blocks of ciphertext are equal.
func HasRepeatedBlocks(ciphertext []byte) bool {
	return RepeatedBlocks(ciphertext) > 0
}

// Detect returns copies of the ciphertexts that contain a repeated block, in
// input order.
func Detect(ciphertexts [][]byte) [][]byte {
	flagged := [][]byte{}
	for _, ct := range ciphertexts {
		if !HasRepeatedBlocks(ct) {
			continue
		}
		dup := make([]byte, len(ct))
		copy(dup, ct)
		flagged = append(flagged, dup)
	}
	return flagged
}
