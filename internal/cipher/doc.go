// Package cipher exposes the cryptanalysis toolkit as named operations that
// can be chained into pipelines, reversed, saved as recipes, and suggested
// automatically by a detector.
//
// # Quick Start
//
//	op, _ := cipher.GetOperation("xor")
//	out, _ := op.Execute(ctx, []byte("Burning 'em"), map[string]any{"key": "494345"})
//
// # Pipelines
//
// Operations run in order, each consuming the previous output:
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "pkcs7_pad", Parameters: map[string]any{"block_size": 16}},
//	        {Name: "aes_ecb_encrypt", Parameters: map[string]any{"key": "59454c4c4f57205355424d4152494e45"}},
//	        {Name: "base64_encode"},
//	    },
//	    Reversible: true,
//	}
//	ct, _ := pipeline.Execute(ctx, plaintext)
//	back, _ := pipeline.Reverse()
//	pt, _ := back.Execute(ctx, ct)
//
// # Available Operations
//
// Encoding: hex_encode/hex_decode, base64_encode/base64_decode.
//
// Block modes: aes_ecb_encrypt/aes_ecb_decrypt (key),
// aes_cbc_encrypt/aes_cbc_decrypt (key, iv), pkcs7_pad/pkcs7_unpad
// (block_size, default 16).
//
// XOR: xor (key, its own inverse), xor_single_break, xor_repeating_break
// (keysize_min, keysize_max, top, pairs, fractional, workers).
//
// Byte-valued parameters accept []byte as-is or a hex string.
//
// # Detection
//
// SmartDetector ranks hex, base64, ECB-fingerprint, and single-byte XOR
// hypotheses with a confidence in [0,1].
//
// # Thread Safety
//
// The registry is safe for concurrent use and operations are stateless.
package cipher
