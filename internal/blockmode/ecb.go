package blockmode

import "crypto/cipher"

type ecb struct {
	blockSize int
	crypt     func(dst, src []byte)
}

// NewECBEncrypter returns a cipher.BlockMode that encrypts each block of its
// input independently with b.
func NewECBEncrypter(b cipher.Block) cipher.BlockMode {
	return &ecb{blockSize: b.BlockSize(), crypt: b.Encrypt}
}

// NewECBDecrypter returns the inverse of NewECBEncrypter.
func NewECBDecrypter(b cipher.Block) cipher.BlockMode {
	return &ecb{blockSize: b.BlockSize(), crypt: b.Decrypt}
}

func (e *ecb) BlockSize() int { return e.blockSize }

// CryptBlocks follows the cipher.BlockMode contract and panics on misuse.
// EncryptECB and DecryptECB validate first and return errors instead.
func (e *ecb) CryptBlocks(dst, src []byte) {
	if len(src)%e.blockSize != 0 {
		panic("blockmode: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("blockmode: output smaller than input")
	}
	for len(src) > 0 {
		e.crypt(dst[:e.blockSize], src[:e.blockSize])
		src = src[e.blockSize:]
		dst = dst[e.blockSize:]
	}
}

// EncryptECB encrypts plaintext block by block. The plaintext must already be
// padded to a multiple of BlockSize.
func EncryptECB(b cipher.Block, plaintext []byte) ([]byte, error) {
	return cryptECB(b, plaintext, NewECBEncrypter)
}

// DecryptECB reverses EncryptECB. Padding is left in place.
func DecryptECB(b cipher.Block, ciphertext []byte) ([]byte, error) {
	return cryptECB(b, ciphertext, NewECBDecrypter)
}

func cryptECB(b cipher.Block, src []byte, mode func(cipher.Block) cipher.BlockMode) ([]byte, error) {
	if err := checkBlock(b); err != nil {
		return nil, err
	}
	if err := checkAligned(src); err != nil {
		return nil, err
	}
	dst := make([]byte, len(src))
	mode(b).CryptBlocks(dst, src)
	return dst, nil
}
