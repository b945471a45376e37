package blockmode

import (
	"bytes"
	"fmt"
)

// PadPKCS7 appends n bytes of value n so the result is a multiple of
// blockSize. A buffer that is already aligned gains a full block of padding,
// which keeps UnpadPKCS7 unambiguous.
func PadPKCS7(buf []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, fmt.Errorf("pad to %d: %w", blockSize, ErrInvalidBlockSize)
	}
	n := blockSize - len(buf)%blockSize
	out := make([]byte, len(buf), len(buf)+n)
	copy(out, buf)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...), nil
}

// UnpadPKCS7 strips and validates PKCS7 padding.
func UnpadPKCS7(buf []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, fmt.Errorf("unpad from %d: %w", blockSize, ErrInvalidBlockSize)
	}
	if len(buf) == 0 || len(buf)%blockSize != 0 {
		return nil, fmt.Errorf("%d bytes with block size %d: %w", len(buf), blockSize, ErrInvalidPadding)
	}
	n := int(buf[len(buf)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("pad byte %d: %w", n, ErrInvalidPadding)
	}
	for _, b := range buf[len(buf)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent pad bytes: %w", ErrInvalidPadding)
		}
	}
	out := make([]byte, len(buf)-n)
	copy(out, buf)
	return out, nil
}
