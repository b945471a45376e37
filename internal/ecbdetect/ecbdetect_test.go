package ecbdetect

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/RowanDark/cryptkit/internal/blockmode"
)

const flaggedHex = "d880619740a8a19b7840a8a31c810a3d08649af70dc06f4fd5d2d69c744cd283" +
	"e2dd052f6b641dbf9d11b0348542bb5708649af70dc06f4fd5d2d69c744cd283" +
	"9475c9dfdbc1d46597949d9c7e82bf5a08649af70dc06f4fd5d2d69c744cd283" +
	"97a93eab8d6aecd566489154789a6b0308649af70dc06f4fd5d2d69c744cd283" +
	"d403180c98c8f6db1f2a3f9c4040deb0ab51b29933f2c123c58386b06fba186a"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}
	return b
}

func TestRepeatedBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{name: "empty", in: nil, want: 0},
		{name: "single block", in: bytes.Repeat([]byte{1}, 16), want: 0},
		{name: "distinct blocks", in: append(bytes.Repeat([]byte{1}, 16), bytes.Repeat([]byte{2}, 16)...), want: 0},
		{name: "two equal blocks", in: bytes.Repeat([]byte{7}, 32), want: 1},
		{name: "partial tail never matches a full block", in: bytes.Repeat([]byte{7}, 24), want: 0},
		{name: "challenge ciphertext", in: mustHex(t, flaggedHex), want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepeatedBlocks(tt.in); got != tt.want {
				t.Fatalf("expected %d repeats, got %d", tt.want, got)
			}
			if got := HasRepeatedBlocks(tt.in); got != (tt.want > 0) {
				t.Fatalf("HasRepeatedBlocks = %v", got)
			}
		})
	}
}

func TestDetectFindsECBLine(t *testing.T) {
	flagged := mustHex(t, flaggedHex)
	clean := make([]byte, 160)
	for i := range clean {
		clean[i] = byte(i)
	}
	input := [][]byte{clean, flagged, clean[:48]}

	got := Detect(input)
	if len(got) != 1 {
		t.Fatalf("expected one flagged ciphertext, got %d", len(got))
	}
	if !bytes.Equal(got[0], flagged) {
		t.Fatal("flagged ciphertext should be returned unchanged")
	}

	got[0][0] ^= 0xff
	if flagged[0] != 0xd8 {
		t.Fatal("Detect should return copies")
	}
}

func TestDetectNoRepeats(t *testing.T) {
	input := [][]byte{
		bytes.Repeat([]byte{1}, 16),
		bytes.Repeat([]byte{2}, 16),
		bytes.Repeat([]byte{3}, 16),
		bytes.Repeat([]byte{4}, 16),
	}
	got := Detect(input)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", got)
	}
}

func TestDetectECBEncryptedRepetition(t *testing.T) {
	block, err := blockmode.NewAES([]byte("YELLOW SUBMARINE"))
	if err != nil {
		t.Fatalf("NewAES: %v", err)
	}
	plaintext := bytes.Repeat([]byte("sixteen byte msg"), 4)

	ecb, err := blockmode.EncryptECB(block, plaintext)
	if err != nil {
		t.Fatalf("EncryptECB: %v", err)
	}
	cbc, err := blockmode.EncryptCBC(block, []byte("0000000000000000"), plaintext)
	if err != nil {
		t.Fatalf("EncryptCBC: %v", err)
	}

	if RepeatedBlocks(ecb) != 3 {
		t.Fatalf("expected 3 repeats in ECB ciphertext, got %d", RepeatedBlocks(ecb))
	}
	if HasRepeatedBlocks(cbc) {
		t.Fatal("CBC ciphertext should not be flagged")
	}
	got := Detect([][]byte{cbc, ecb})
	if len(got) != 1 || !bytes.Equal(got[0], ecb) {
		t.Fatal("only the ECB ciphertext should be flagged")
	}
}
