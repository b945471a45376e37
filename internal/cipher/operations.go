package cipher

import (
	"context"
	"strings"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/xorcrack"
)

// Base64 Operations

// Base64EncodeOp encodes data as standard Base64
type Base64EncodeOp struct {
	BaseOperation
}

func (op *Base64EncodeOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	return []byte(codec.EncodeBase64(input)), nil
}

// Base64DecodeOp decodes standard Base64 data, ignoring line breaks
type Base64DecodeOp struct {
	BaseOperation
}

func (op *Base64DecodeOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	return codec.DecodeBase64(string(input))
}

// Hex Operations

// HexEncodeOp encodes bytes as hexadecimal string
type HexEncodeOp struct {
	BaseOperation
}

func (op *HexEncodeOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	return []byte(codec.EncodeHex(input)), nil
}

// HexDecodeOp decodes hexadecimal string to bytes
type HexDecodeOp struct {
	BaseOperation
}

func (op *HexDecodeOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	inputStr := strings.TrimSpace(string(input))
	inputStr = strings.TrimPrefix(inputStr, "0x")
	inputStr = strings.ReplaceAll(inputStr, ":", "")
	return codec.DecodeHex(inputStr)
}

// Padding Operations

// PKCS7PadOp appends PKCS7 padding
type PKCS7PadOp struct {
	BaseOperation
}

func (op *PKCS7PadOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	size, err := intParam(params, "block_size", blockmode.BlockSize)
	if err != nil {
		return nil, err
	}
	return blockmode.PadPKCS7(input, size)
}

// PKCS7UnpadOp validates and strips PKCS7 padding
type PKCS7UnpadOp struct {
	BaseOperation
}

func (op *PKCS7UnpadOp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	size, err := intParam(params, "block_size", blockmode.BlockSize)
	if err != nil {
		return nil, err
	}
	return blockmode.UnpadPKCS7(input, size)
}

// XOR Operations

// XOROp XORs the input with a repeating key
type XOROp struct {
	BaseOperation
}

func (op *XOROp) Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error) {
	key, err := bytesParam(params, "key")
	if err != nil {
		return nil, err
	}
	return xorcrack.Apply(input, key)
}

func encodingOperations() []Operation {
	base64Encode := &Base64EncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "base64_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode data as standard Base64",
		},
	}
	base64Decode := &Base64DecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "base64_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode standard Base64 data",
		},
	}
	base64Encode.ReverseOp = base64Decode
	base64Decode.ReverseOp = base64Encode

	hexEncode := &HexEncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode bytes as hexadecimal string",
		},
	}
	hexDecode := &HexDecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode hexadecimal string to bytes",
		},
	}
	hexEncode.ReverseOp = hexDecode
	hexDecode.ReverseOp = hexEncode

	pad := &PKCS7PadOp{
		BaseOperation: BaseOperation{
			NameValue:        "pkcs7_pad",
			TypeValue:        OperationTypePad,
			DescriptionValue: "Append PKCS7 padding (block_size, default 16)",
		},
	}
	unpad := &PKCS7UnpadOp{
		BaseOperation: BaseOperation{
			NameValue:        "pkcs7_unpad",
			TypeValue:        OperationTypeUnpad,
			DescriptionValue: "Validate and strip PKCS7 padding (block_size, default 16)",
		},
	}
	pad.ReverseOp = unpad
	unpad.ReverseOp = pad

	xor := &XOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "XOR with a repeating key (key, hex)",
		},
	}
	xor.ReverseOp = xor

	return []Operation{base64Encode, base64Decode, hexEncode, hexDecode, pad, unpad, xor}
}
