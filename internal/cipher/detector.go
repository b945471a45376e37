package cipher

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/ecbdetect"
	"github.com/RowanDark/cryptkit/internal/score"
	"github.com/RowanDark/cryptkit/internal/xorcrack"
)

var (
	base64Pattern  = regexp.MustCompile(`^[A-Za-z0-9+/\r\n]+=*$`)
	hexPattern     = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	decimalPattern = regexp.MustCompile(`^[0-9]+$`)
)

// minimum confidence kept in Detect output
const confidenceFloor = 0.3

// view is one interpretation of the input bytes
type view struct {
	label  string
	prereq string
	data   []byte
}

// SmartDetector ranks encoding and cipher hypotheses for a buffer
type SmartDetector struct{}

// NewSmartDetector creates a new smart detector
func NewSmartDetector() *SmartDetector {
	return &SmartDetector{}
}

// Detect returns hypotheses sorted by confidence, highest first. ECB
// hypotheses are also tested against the hex or base64 decoding of the input
// when one exists. Single-byte XOR is only tested against the decoding in
// that case, since the encoded text itself always looks printable.
func (d *SmartDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	results := []DetectionResult{}
	results = append(results, d.detectBase64(input)...)
	results = append(results, d.detectHex(input)...)

	views := []view{{label: "raw", data: input}}
	if b, ok := decodedHex(input); ok {
		views = append(views, view{label: "hex-decoded", prereq: "hex_decode", data: b})
	} else if b, ok := decodedBase64(input); ok {
		views = append(views, view{label: "base64-decoded", prereq: "base64_decode", data: b})
	}

	for i, v := range views {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, d.detectECB(v)...)
		if i == len(views)-1 {
			results = append(results, d.detectSingleXOR(v)...)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	filtered := []DetectionResult{}
	for _, r := range results {
		if r.Confidence >= confidenceFloor {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

// SupportedEncodings returns a list of encodings this detector can identify
func (d *SmartDetector) SupportedEncodings() []string {
	return []string{
		"base64",
		"hex",
		"aes-ecb",
		"xor-single",
	}
}

// detectBase64 checks if input is Base64 encoded
func (d *SmartDetector) detectBase64(input []byte) []DetectionResult {
	inputStr := strings.TrimSpace(string(input))
	if !base64Pattern.MatchString(inputStr) {
		return nil
	}
	if _, err := codec.DecodeBase64(inputStr); err == nil {
		confidence := 0.9
		// Hex alphabets are a subset of base64, so defer to the hex detector
		if hexPattern.MatchString(inputStr) {
			confidence = 0.5
		}
		return []DetectionResult{{
			Encoding:   "base64",
			Confidence: confidence,
			Reasoning:  "Matches Base64 pattern and decodes successfully",
			Operation:  "base64_decode",
		}}
	}
	if _, err := base64.RawStdEncoding.DecodeString(inputStr); err == nil {
		return []DetectionResult{{
			Encoding:   "base64",
			Confidence: 0.6,
			Reasoning:  "Matches Base64 pattern without padding",
			Operation:  "base64_decode",
		}}
	}
	return nil
}

// detectHex checks if input is hexadecimal
func (d *SmartDetector) detectHex(input []byte) []DetectionResult {
	inputStr := strings.TrimSpace(string(input))
	hasPrefix := strings.HasPrefix(inputStr, "0x")
	cleaned := strings.Join(strings.Fields(strings.TrimPrefix(inputStr, "0x")), "")

	if !hexPattern.MatchString(cleaned) || len(cleaned)%2 != 0 {
		return nil
	}
	confidence := 0.8
	if hasPrefix {
		confidence = 0.95
	}
	// Lower confidence if it's all numbers (could be decimal)
	if decimalPattern.MatchString(cleaned) {
		confidence *= 0.6
	}
	return []DetectionResult{{
		Encoding:   "hex",
		Confidence: confidence,
		Reasoning:  "Matches hexadecimal pattern",
		Operation:  "hex_decode",
	}}
}

// detectECB looks for repeated 16-byte blocks
func (d *SmartDetector) detectECB(v view) []DetectionResult {
	data := v.data
	if len(data) < 2*blockmode.BlockSize || len(data)%blockmode.BlockSize != 0 {
		return nil
	}
	repeats := ecbdetect.RepeatedBlocks(data)
	if repeats == 0 {
		return nil
	}
	blocks := len(data) / blockmode.BlockSize
	confidence := math.Min(0.6+float64(repeats)/float64(blocks), 0.95)
	return []DetectionResult{{
		Encoding:     "aes-ecb",
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("%s input repeats %d of %d cipher blocks", v.label, repeats, blocks),
		Operation:    "aes_ecb_decrypt",
		Prerequisite: v.prereq,
	}}
}

// detectSingleXOR breaks the data as single-byte XOR and rates how much of
// the best decryption is letters and spaces. Key 0 means the data is
// already text, and a non-positive score means it is not text under any key.
func (d *SmartDetector) detectSingleXOR(v view) []DetectionResult {
	if len(v.data) < 8 {
		return nil
	}
	candidate, err := xorcrack.BreakSingle(v.data)
	if err != nil || candidate.Key[0] == 0 || candidate.Score <= 0 {
		return nil
	}
	text := 0
	for _, b := range candidate.Plaintext {
		if score.Weight(b) > 0 {
			text++
		}
	}
	ratio := float64(text) / float64(len(candidate.Plaintext))
	if ratio < 0.75 {
		return nil
	}
	return []DetectionResult{{
		Encoding:     "xor-single",
		Confidence:   math.Min(ratio*0.9, 0.9),
		Reasoning:    fmt.Sprintf("%s input decrypts under key 0x%02x to English-like text (score %d)", v.label, candidate.Key[0], candidate.Score),
		Operation:    "xor_single_break",
		Prerequisite: v.prereq,
	}}
}

func decodedHex(input []byte) ([]byte, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(string(input)), "0x")
	if !hexPattern.MatchString(strings.Join(strings.Fields(s), "")) {
		return nil, false
	}
	b, err := codec.DecodeHex(s)
	return b, err == nil && len(b) > 0
}

func decodedBase64(input []byte) ([]byte, bool) {
	s := strings.TrimSpace(string(input))
	if !base64Pattern.MatchString(s) {
		return nil, false
	}
	b, err := codec.DecodeBase64(s)
	return b, err == nil && len(b) > 0
}

// DecodeAll applies every suggested operation that succeeds without extra
// parameters. A hypothesis found on decoded bytes runs its prerequisite
// decode first.
func DecodeAll(ctx context.Context, input []byte) ([]DecodeResult, error) {
	detector := NewSmartDetector()
	detections, err := detector.Detect(ctx, input)
	if err != nil {
		return nil, err
	}

	results := []DecodeResult{}
	for _, detection := range detections {
		op, exists := GetOperation(detection.Operation)
		if !exists {
			continue
		}

		data := input
		if detection.Prerequisite != "" {
			prereq, exists := GetOperation(detection.Prerequisite)
			if !exists {
				continue
			}
			prepared, err := prereq.Execute(ctx, input, nil)
			if err != nil {
				results = append(results, DecodeResult{
					Detection: detection,
					Error:     fmt.Sprintf("%s: %v", detection.Prerequisite, err),
				})
				continue
			}
			data = prepared
		}

		decoded, err := op.Execute(ctx, data, nil)
		if err != nil {
			results = append(results, DecodeResult{
				Detection: detection,
				Error:     err.Error(),
			})
			continue
		}

		results = append(results, DecodeResult{
			Detection: detection,
			Decoded:   decoded,
			Success:   true,
		})
	}

	return results, nil
}

// DecodeResult represents the result of a decode attempt
type DecodeResult struct {
	Detection DetectionResult `json:"detection"`
	Decoded   []byte          `json:"decoded"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}
