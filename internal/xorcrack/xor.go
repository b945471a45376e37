// Package xorcrack recovers XOR stream keys from ciphertext by scoring
// candidate plaintexts against English letter frequencies.
package xorcrack

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned when an XOR key has no bytes.
	ErrEmptyKey = errors.New("xor key is empty")
	// ErrEmptyInput is returned when there is nothing to analyse.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNoCandidates is returned when a search has no candidate to evaluate.
	ErrNoCandidates = errors.New("no candidates to evaluate")
	// ErrLengthMismatch is returned when two buffers must be the same length.
	ErrLengthMismatch = errors.New("buffer lengths differ")
	// ErrInputTooShort is returned when the input cannot supply enough chunks.
	ErrInputTooShort = errors.New("input too short")
	// ErrInvalidKeysize is returned for non-positive or inverted keysize bounds.
	ErrInvalidKeysize = errors.New("invalid keysize")
)

// Apply XORs buf with key repeated cyclically: output byte i is
// buf[i] ^ key[i % len(key)]. The result is a new buffer.
func Apply(buf, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("apply xor: %w", ErrEmptyKey)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}

func applyByte(dst, src []byte, key byte) {
	for i, b := range src {
		dst[i] = b ^ key
	}
}
