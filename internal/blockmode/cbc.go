package blockmode

import (
	"crypto/cipher"
	"fmt"
)

// EncryptCBC chains each plaintext block with the previous ciphertext block,
// seeded by iv, before encrypting it with b.
func EncryptCBC(b cipher.Block, iv, plaintext []byte) ([]byte, error) {
	if err := checkCBC(b, iv, plaintext); err != nil {
		return nil, err
	}

	out := make([]byte, len(plaintext))
	prev := iv
	scratch := make([]byte, BlockSize)
	for i := 0; i < len(plaintext); i += BlockSize {
		xorBlock(scratch, plaintext[i:i+BlockSize], prev)
		b.Encrypt(out[i:i+BlockSize], scratch)
		prev = out[i : i+BlockSize]
	}
	return out, nil
}

// DecryptCBC treats iv as block zero and recovers plaintext block i by
// decrypting ciphertext block i and XORing it with block i-1.
func DecryptCBC(b cipher.Block, iv, ciphertext []byte) ([]byte, error) {
	if err := checkCBC(b, iv, ciphertext); err != nil {
		return nil, err
	}

	out := make([]byte, len(ciphertext))
	prev := iv
	scratch := make([]byte, BlockSize)
	for i := 0; i < len(ciphertext); i += BlockSize {
		block := ciphertext[i : i+BlockSize]
		b.Decrypt(scratch, block)
		xorBlock(out[i:i+BlockSize], scratch, prev)
		prev = block
	}
	return out, nil
}

func checkCBC(b cipher.Block, iv, buf []byte) error {
	if err := checkBlock(b); err != nil {
		return err
	}
	if len(iv) != BlockSize {
		return fmt.Errorf("iv of %d bytes: %w", len(iv), ErrInvalidIV)
	}
	return checkAligned(buf)
}
