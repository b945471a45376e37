package cipher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/xorcrack"
)

const submarineHex = "59454c4c4f57205355424d4152494e45"

func mustOp(t *testing.T, name string) Operation {
	t.Helper()
	op, ok := GetOperation(name)
	if !ok {
		t.Fatalf("operation %s not registered", name)
	}
	return op
}

func TestBase64Operations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "Hello, World!", "SGVsbG8sIFdvcmxkIQ=="},
		{"empty string", "", ""},
		{"challenge one", "I'm killing your brain like a poisonous mushroom", "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t"},
	}

	ctx := context.Background()
	encoder := mustOp(t, "base64_encode")
	decoder := mustOp(t, "base64_decode")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := encoder.Execute(ctx, []byte(tt.input), nil)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if string(encoded) != tt.expected {
				t.Errorf("encode: expected %q, got %q", tt.expected, string(encoded))
			}

			decoded, err := decoder.Execute(ctx, encoded, nil)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if string(decoded) != tt.input {
				t.Errorf("decode: expected %q, got %q", tt.input, string(decoded))
			}
		})
	}
}

func TestHexOperations(t *testing.T) {
	ctx := context.Background()
	encoder := mustOp(t, "hex_encode")
	decoder := mustOp(t, "hex_decode")

	encoded, err := encoder.Execute(ctx, []byte("hello"), nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(encoded) != "68656c6c6f" {
		t.Errorf("expected 68656c6c6f, got %q", encoded)
	}

	for _, in := range []string{"68656c6c6f", "0x68656c6c6f", "68:65:6c:6c:6f", "68 65 6c 6c 6f\n"} {
		decoded, err := decoder.Execute(ctx, []byte(in), nil)
		if err != nil {
			t.Fatalf("decode %q failed: %v", in, err)
		}
		if string(decoded) != "hello" {
			t.Errorf("decode %q: got %q", in, decoded)
		}
	}

	if _, err := decoder.Execute(ctx, []byte("xyz"), nil); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestXOROperation(t *testing.T) {
	ctx := context.Background()
	op := mustOp(t, "xor")

	in := []byte("Burning 'em, if you ain't quick and nimble\nI go crazy when I hear a cymbal")
	want := "0b3637272a2b2e63622c2e69692a23693a2a3c6324202d623d63343c2a26226324272765272a282b2f20430a652e2c652a3124333a653e2b2027630c692b20283165286326302e27282f"

	out, err := op.Execute(ctx, in, map[string]any{"key": "494345"})
	if err != nil {
		t.Fatalf("xor failed: %v", err)
	}
	hexed, _ := mustOp(t, "hex_encode").Execute(ctx, out, nil)
	if string(hexed) != want {
		t.Fatalf("unexpected ciphertext %s", hexed)
	}

	// raw []byte keys are used as-is
	again, err := op.Execute(ctx, out, map[string]any{"key": []byte("ICE")})
	if err != nil {
		t.Fatalf("xor failed: %v", err)
	}
	if !bytes.Equal(again, in) {
		t.Fatal("xor should be its own inverse")
	}

	rev, ok := op.Reverse()
	if !ok || rev.Name() != "xor" {
		t.Fatal("xor should reverse to itself")
	}
}

func TestMissingParameters(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		op     string
		params map[string]any
	}{
		{op: "xor", params: nil},
		{op: "xor", params: map[string]any{"key": ""}},
		{op: "aes_ecb_encrypt", params: nil},
		{op: "aes_cbc_decrypt", params: map[string]any{"key": submarineHex}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			_, err := mustOp(t, tt.op).Execute(ctx, make([]byte, 16), tt.params)
			if !errors.Is(err, ErrMissingParameter) {
				t.Fatalf("expected ErrMissingParameter, got %v", err)
			}
		})
	}
}

func TestAESECBOperations(t *testing.T) {
	ctx := context.Background()
	params := map[string]any{"key": submarineHex}

	ct, err := mustOp(t, "aes_ecb_encrypt").Execute(ctx, []byte("foobarbazquxfoo!"), params)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	hexed, _ := mustOp(t, "hex_encode").Execute(ctx, ct, nil)
	if string(hexed) != "dba2f568ec8c0b4203a4aab735672f20" {
		t.Fatalf("unexpected ciphertext %s", hexed)
	}

	pt, err := mustOp(t, "aes_ecb_decrypt").Execute(ctx, ct, params)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(pt) != "foobarbazquxfoo!" {
		t.Fatalf("unexpected plaintext %q", pt)
	}

	if _, err := mustOp(t, "aes_ecb_encrypt").Execute(ctx, []byte("short"), params); !errors.Is(err, blockmode.ErrNotBlockAligned) {
		t.Fatalf("expected ErrNotBlockAligned, got %v", err)
	}
	if _, err := mustOp(t, "aes_ecb_encrypt").Execute(ctx, make([]byte, 16), map[string]any{"key": "00"}); !errors.Is(err, blockmode.ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestAESCBCOperations(t *testing.T) {
	ctx := context.Background()
	params := map[string]any{"key": submarineHex, "iv": "00000000000000000000000000000000"}
	plaintext := bytes.Repeat([]byte("sixteen byte msg"), 3)

	ct, err := mustOp(t, "aes_cbc_encrypt").Execute(ctx, plaintext, params)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	pt, err := mustOp(t, "aes_cbc_decrypt").Execute(ctx, ct, params)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("unexpected plaintext %q", pt)
	}

	if _, err := mustOp(t, "aes_cbc_encrypt").Execute(ctx, plaintext, map[string]any{"key": submarineHex, "iv": "0011"}); !errors.Is(err, blockmode.ErrInvalidIV) {
		t.Fatalf("expected ErrInvalidIV, got %v", err)
	}
}

func TestPKCS7Operations(t *testing.T) {
	ctx := context.Background()
	pad := mustOp(t, "pkcs7_pad")
	unpad := mustOp(t, "pkcs7_unpad")

	tests := []struct {
		name   string
		params map[string]any
		want   []byte
	}{
		{name: "default block size", params: nil, want: []byte("YELLOW SUBMARINE" + string(bytes.Repeat([]byte{16}, 16)))},
		{name: "int", params: map[string]any{"block_size": 20}, want: []byte("YELLOW SUBMARINE\x04\x04\x04\x04")},
		{name: "json number", params: map[string]any{"block_size": float64(20)}, want: []byte("YELLOW SUBMARINE\x04\x04\x04\x04")},
		{name: "cli string", params: map[string]any{"block_size": "20"}, want: []byte("YELLOW SUBMARINE\x04\x04\x04\x04")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padded, err := pad.Execute(ctx, []byte("YELLOW SUBMARINE"), tt.params)
			if err != nil {
				t.Fatalf("pad failed: %v", err)
			}
			if !bytes.Equal(padded, tt.want) {
				t.Fatalf("expected %q, got %q", tt.want, padded)
			}
			back, err := unpad.Execute(ctx, padded, tt.params)
			if err != nil {
				t.Fatalf("unpad failed: %v", err)
			}
			if string(back) != "YELLOW SUBMARINE" {
				t.Fatalf("unexpected unpad result %q", back)
			}
		})
	}

	if _, err := pad.Execute(ctx, nil, map[string]any{"block_size": 2.5}); err == nil {
		t.Error("expected error for fractional block size")
	}
	if _, err := unpad.Execute(ctx, []byte("ICE ICE BABY\x01\x02\x03\x04"), nil); !errors.Is(err, blockmode.ErrInvalidPadding) {
		t.Errorf("expected ErrInvalidPadding, got %v", err)
	}
}

func TestXORSingleBreakOperation(t *testing.T) {
	ctx := context.Background()
	ct, err := mustOp(t, "hex_decode").Execute(ctx, []byte("1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736"), nil)
	if err != nil {
		t.Fatalf("hex decode failed: %v", err)
	}
	pt, err := mustOp(t, "xor_single_break").Execute(ctx, ct, nil)
	if err != nil {
		t.Fatalf("break failed: %v", err)
	}
	if string(pt) != "Cooking MC's like a pound of bacon" {
		t.Fatalf("unexpected plaintext %q", pt)
	}
	if _, ok := mustOp(t, "xor_single_break").Reverse(); ok {
		t.Fatal("analysis operations are not reversible")
	}
}

func TestXORRepeatingBreakOperation(t *testing.T) {
	plaintext, err := os.ReadFile(filepath.Join("..", "xorcrack", "testdata", "lyrics.txt"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	ciphertext, err := xorcrack.Apply(plaintext, []byte("Terminator X: Bring the noise"))
	if err != nil {
		t.Fatalf("encrypt fixture: %v", err)
	}

	got, err := mustOp(t, "xor_repeating_break").Execute(context.Background(), ciphertext, map[string]any{"workers": 2})
	if err != nil {
		t.Fatalf("break failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("recovered plaintext differs from fixture")
	}

	if _, err := mustOp(t, "xor_repeating_break").Execute(context.Background(), ciphertext, map[string]any{"keysize_min": "x"}); err == nil {
		t.Fatal("expected error for non-numeric keysize_min")
	}
}

func TestParseStep(t *testing.T) {
	cfg, err := ParseStep("aes_cbc_encrypt key=00ff iv=0011")
	if err != nil {
		t.Fatalf("ParseStep failed: %v", err)
	}
	if cfg.Name != "aes_cbc_encrypt" || cfg.Parameters["key"] != "00ff" || cfg.Parameters["iv"] != "0011" {
		t.Fatalf("unexpected step %+v", cfg)
	}

	cfg, err = ParseStep("hex_encode")
	if err != nil || cfg.Name != "hex_encode" || cfg.Parameters != nil {
		t.Fatalf("unexpected bare step %+v, %v", cfg, err)
	}

	for _, bad := range []string{"", "   ", "xor key", "xor =00"} {
		if _, err := ParseStep(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
