// Package blockmode builds ECB and CBC modes and PKCS7 padding on top of a
// single-block cipher primitive supplied by the caller.
package blockmode

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/sys/cpu"
)

// BlockSize is the block length every mode in this package operates on.
const BlockSize = aes.BlockSize

var (
	// ErrInvalidKeySize is returned when an AES-128 key is not 16 bytes.
	ErrInvalidKeySize = errors.New("key must be 16 bytes")
	// ErrNotBlockAligned is returned when input is not a whole number of blocks.
	ErrNotBlockAligned = errors.New("input is not a multiple of the block size")
	// ErrInvalidIV is returned when the IV length differs from the block size.
	ErrInvalidIV = errors.New("iv must be one block long")
	// ErrInvalidBlockSize is returned for a padding block size outside [1,255].
	ErrInvalidBlockSize = errors.New("block size must be between 1 and 255")
	// ErrInvalidPadding is returned when PKCS7 padding is malformed.
	ErrInvalidPadding = errors.New("invalid pkcs7 padding")
)

// NewAES returns the AES-128 single-block primitive for key.
func NewAES(key []byte) (cipher.Block, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("aes-128 key of %d bytes: %w", len(key), ErrInvalidKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}
	return block, nil
}

// HardwareAES reports whether the CPU has AES instructions the standard
// library block primitive will use.
func HardwareAES() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES
}

func checkBlock(b cipher.Block) error {
	if b == nil {
		return errors.New("nil block cipher")
	}
	if b.BlockSize() != BlockSize {
		return fmt.Errorf("block cipher size %d, want %d", b.BlockSize(), BlockSize)
	}
	return nil
}

func checkAligned(buf []byte) error {
	if len(buf)%BlockSize != 0 {
		return fmt.Errorf("%d bytes: %w", len(buf), ErrNotBlockAligned)
	}
	return nil
}

func xorBlock(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
