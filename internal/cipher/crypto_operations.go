package cipher

import (
	"context"
	stdcipher "crypto/cipher"
	"fmt"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/xorcrack"
)

// AES Block Mode Operations

// AESECBEncryptOp encrypts block-aligned input with AES-128 in ECB mode
type AESECBEncryptOp struct {
	BaseOperation
}

func (op *AESECBEncryptOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	block, err := aesFromParams(params)
	if err != nil {
		return nil, err
	}
	return blockmode.EncryptECB(block, input)
}

// AESECBDecryptOp decrypts AES-128 ECB ciphertext, leaving padding in place
type AESECBDecryptOp struct {
	BaseOperation
}

func (op *AESECBDecryptOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	block, err := aesFromParams(params)
	if err != nil {
		return nil, err
	}
	return blockmode.DecryptECB(block, input)
}

// AESCBCEncryptOp encrypts block-aligned input with AES-128 in CBC mode
type AESCBCEncryptOp struct {
	BaseOperation
}

func (op *AESCBCEncryptOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	block, err := aesFromParams(params)
	if err != nil {
		return nil, err
	}
	iv, err := bytesParam(params, "iv")
	if err != nil {
		return nil, err
	}
	return blockmode.EncryptCBC(block, iv, input)
}

// AESCBCDecryptOp decrypts AES-128 CBC ciphertext, leaving padding in place
type AESCBCDecryptOp struct {
	BaseOperation
}

func (op *AESCBCDecryptOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	block, err := aesFromParams(params)
	if err != nil {
		return nil, err
	}
	iv, err := bytesParam(params, "iv")
	if err != nil {
		return nil, err
	}
	return blockmode.DecryptCBC(block, iv, input)
}

// XOR Analysis Operations

// XORSingleBreakOp recovers a single-byte XOR key and returns the plaintext
type XORSingleBreakOp struct {
	BaseOperation
}

func (op *XORSingleBreakOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	candidate, err := xorcrack.BreakSingle(input)
	if err != nil {
		return nil, err
	}
	return candidate.Plaintext, nil
}

// XORRepeatingBreakOp estimates the keysize, recovers a repeating XOR key,
// and returns the plaintext
type XORRepeatingBreakOp struct {
	BaseOperation
}

func (op *XORRepeatingBreakOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	estimate, workers, err := repeatingOptions(params)
	if err != nil {
		return nil, err
	}
	candidates, err := xorcrack.EstimateKeysize(input, estimate...)
	if err != nil {
		return nil, err
	}
	result, err := xorcrack.BreakRepeating(ctx, input, xorcrack.Sizes(candidates), xorcrack.WithWorkers(workers))
	if err != nil {
		return nil, err
	}
	return result.Plaintext, nil
}

func repeatingOptions(params map[string]any) ([]xorcrack.EstimateOption, int, error) {
	lo, err := intParam(params, "keysize_min", xorcrack.DefaultMinKeysize)
	if err != nil {
		return nil, 0, err
	}
	hi, err := intParam(params, "keysize_max", xorcrack.DefaultMaxKeysize)
	if err != nil {
		return nil, 0, err
	}
	top, err := intParam(params, "top", xorcrack.DefaultTop)
	if err != nil {
		return nil, 0, err
	}
	pairs, err := intParam(params, "pairs", xorcrack.DefaultPairs)
	if err != nil {
		return nil, 0, err
	}
	fractional, err := boolParam(params, "fractional", true)
	if err != nil {
		return nil, 0, err
	}
	workers, err := intParam(params, "workers", 0)
	if err != nil {
		return nil, 0, err
	}

	opts := []xorcrack.EstimateOption{
		xorcrack.WithRange(lo, hi),
		xorcrack.WithTop(top),
		xorcrack.WithPairs(pairs),
	}
	if fractional {
		opts = append(opts, xorcrack.WithFractional())
	}
	return opts, workers, nil
}

func aesFromParams(params map[string]any) (stdcipher.Block, error) {
	key, err := bytesParam(params, "key")
	if err != nil {
		return nil, err
	}
	block, err := blockmode.NewAES(key)
	if err != nil {
		return nil, fmt.Errorf("parameter key: %w", err)
	}
	return block, nil
}

func cryptoOperations() []Operation {
	ecbEncrypt := &AESECBEncryptOp{
		BaseOperation: BaseOperation{
			NameValue:        "aes_ecb_encrypt",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "AES-128 ECB encrypt block-aligned input (key)",
		},
	}
	ecbDecrypt := &AESECBDecryptOp{
		BaseOperation: BaseOperation{
			NameValue:        "aes_ecb_decrypt",
			TypeValue:        OperationTypeDecrypt,
			DescriptionValue: "AES-128 ECB decrypt (key)",
		},
	}
	ecbEncrypt.ReverseOp = ecbDecrypt
	ecbDecrypt.ReverseOp = ecbEncrypt

	cbcEncrypt := &AESCBCEncryptOp{
		BaseOperation: BaseOperation{
			NameValue:        "aes_cbc_encrypt",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "AES-128 CBC encrypt block-aligned input (key, iv)",
		},
	}
	cbcDecrypt := &AESCBCDecryptOp{
		BaseOperation: BaseOperation{
			NameValue:        "aes_cbc_decrypt",
			TypeValue:        OperationTypeDecrypt,
			DescriptionValue: "AES-128 CBC decrypt (key, iv)",
		},
	}
	cbcEncrypt.ReverseOp = cbcDecrypt
	cbcDecrypt.ReverseOp = cbcEncrypt

	singleBreak := &XORSingleBreakOp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_single_break",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "Recover a single-byte XOR key and return the plaintext",
		},
	}
	repeatingBreak := &XORRepeatingBreakOp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_repeating_break",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "Estimate keysize, recover a repeating XOR key, and return the plaintext",
		},
	}

	return []Operation{ecbEncrypt, ecbDecrypt, cbcEncrypt, cbcDecrypt, singleBreak, repeatingBreak}
}
