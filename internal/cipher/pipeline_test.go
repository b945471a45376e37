package cipher

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestPipelineExecution(t *testing.T) {
	tests := []struct {
		name       string
		operations []OperationConfig
		input      string
		expected   string
	}{
		{
			name:       "single operation",
			operations: []OperationConfig{{Name: "base64_encode"}},
			input:      "hello",
			expected:   "aGVsbG8=",
		},
		{
			name: "hex to base64",
			operations: []OperationConfig{
				{Name: "hex_decode"},
				{Name: "base64_encode"},
			},
			input:    "49276d206b696c6c696e6720796f757220627261696e206c696b65206120706f69736f6e6f7573206d757368726f6f6d",
			expected: "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t",
		},
		{
			name: "fixed xor",
			operations: []OperationConfig{
				{Name: "hex_decode"},
				{Name: "xor", Parameters: map[string]any{"key": "686974207468652062756c6c277320657965"}},
				{Name: "hex_encode"},
			},
			input:    "1c0111001f010100061a024b53535009181c",
			expected: "746865206b696420646f6e277420706c6179",
		},
		{
			name: "break single byte xor",
			operations: []OperationConfig{
				{Name: "hex_decode"},
				{Name: "xor_single_break"},
			},
			input:    "1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736",
			expected: "Cooking MC's like a pound of bacon",
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &Pipeline{Operations: tt.operations}

			result, err := pipeline.Execute(ctx, []byte(tt.input))
			if err != nil {
				t.Fatalf("pipeline execution failed: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(result))
			}
		})
	}
}

func TestPipelineReversibility(t *testing.T) {
	tests := []struct {
		name       string
		operations []OperationConfig
		input      []byte
	}{
		{
			name:       "single reversible operation",
			operations: []OperationConfig{{Name: "hex_encode"}},
			input:      []byte("test"),
		},
		{
			name: "padded ecb to base64",
			operations: []OperationConfig{
				{Name: "pkcs7_pad"},
				{Name: "aes_ecb_encrypt", Parameters: map[string]any{"key": submarineHex}},
				{Name: "base64_encode"},
			},
			input: []byte("Play that funky music"),
		},
		{
			name: "padded cbc then xor",
			operations: []OperationConfig{
				{Name: "pkcs7_pad", Parameters: map[string]any{"block_size": 16}},
				{Name: "aes_cbc_encrypt", Parameters: map[string]any{"key": submarineHex, "iv": "000102030405060708090a0b0c0d0e0f"}},
				{Name: "xor", Parameters: map[string]any{"key": "ff"}},
				{Name: "hex_encode"},
			},
			input: bytes.Repeat([]byte("ICE ICE BABY "), 5),
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &Pipeline{Operations: tt.operations, Reversible: true}

			encoded, err := pipeline.Execute(ctx, tt.input)
			if err != nil {
				t.Fatalf("forward pipeline failed: %v", err)
			}

			reversed, err := pipeline.Reverse()
			if err != nil {
				t.Fatalf("failed to reverse pipeline: %v", err)
			}
			if len(reversed.Operations) != len(tt.operations) {
				t.Fatalf("reversed pipeline has %d steps, want %d", len(reversed.Operations), len(tt.operations))
			}

			decoded, err := reversed.Execute(ctx, encoded)
			if err != nil {
				t.Fatalf("reverse pipeline failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.input) {
				t.Errorf("round trip mismatch: expected %q, got %q", tt.input, decoded)
			}
		})
	}
}

func TestPipelineReverseOrder(t *testing.T) {
	pipeline := &Pipeline{
		Operations: []OperationConfig{
			{Name: "pkcs7_pad"},
			{Name: "aes_ecb_encrypt", Parameters: map[string]any{"key": submarineHex}},
		},
		Reversible: true,
	}
	reversed, err := pipeline.Reverse()
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if reversed.Operations[0].Name != "aes_ecb_decrypt" || reversed.Operations[1].Name != "pkcs7_unpad" {
		t.Fatalf("unexpected reversed steps %+v", reversed.Operations)
	}
	if reversed.Operations[0].Parameters["key"] != submarineHex {
		t.Fatal("parameters should carry over to the inverse step")
	}
}

func TestPipelineReverseErrors(t *testing.T) {
	notReversible := &Pipeline{Operations: []OperationConfig{{Name: "hex_encode"}}}
	if _, err := notReversible.Reverse(); err == nil {
		t.Error("expected error for pipeline not marked reversible")
	}

	analysis := &Pipeline{Operations: []OperationConfig{{Name: "xor_single_break"}}, Reversible: true}
	if _, err := analysis.Reverse(); err == nil {
		t.Error("expected error for irreversible operation")
	}

	unknown := &Pipeline{Operations: []OperationConfig{{Name: "rot13"}}, Reversible: true}
	if _, err := unknown.Reverse(); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestPipelineErrors(t *testing.T) {
	ctx := context.Background()

	unknown := &Pipeline{Operations: []OperationConfig{{Name: "hex_encode"}, {Name: "rot13"}}}
	if _, err := unknown.Execute(ctx, []byte("x")); err == nil {
		t.Error("expected error for unknown operation")
	}

	missing := &Pipeline{Operations: []OperationConfig{{Name: "xor"}}}
	if _, err := missing.Execute(ctx, []byte("x")); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter through the pipeline, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := (&Pipeline{Operations: []OperationConfig{{Name: "hex_encode"}}}).Execute(cancelled, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEmptyPipelineReturnsInput(t *testing.T) {
	out, err := (&Pipeline{}).Execute(context.Background(), []byte("unchanged"))
	if err != nil {
		t.Fatalf("empty pipeline failed: %v", err)
	}
	if string(out) != "unchanged" {
		t.Fatalf("unexpected output %q", out)
	}
}
