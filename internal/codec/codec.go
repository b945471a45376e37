// Package codec turns hex, base64, and line-oriented text into byte buffers
// and back.
package codec

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names an input or output text encoding.
type Format string

const (
	FormatRaw         Format = "raw"
	FormatHex         Format = "hex"
	FormatBase64      Format = "base64"
	FormatHexLines    Format = "hex-lines"
	FormatBase64Lines Format = "base64-lines"
)

// ErrUnknownFormat is returned for a format name this package does not know.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat validates a format name. The empty string means raw.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatRaw, nil
	case FormatRaw, FormatHex, FormatBase64, FormatHexLines, FormatBase64Lines:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Lines reports whether the format yields one buffer per input line.
func (f Format) Lines() bool {
	return f == FormatHexLines || f == FormatBase64Lines
}

// DecodeHex decodes a hex string, ignoring surrounding and embedded whitespace.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(stripSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

// DecodeBase64 decodes standard padded base64. Line breaks are ignored so a
// wrapped file decodes as one buffer.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(stripSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}

// EncodeHex returns the lowercase hex form of buf.
func EncodeHex(buf []byte) string {
	return hex.EncodeToString(buf)
}

// EncodeBase64 returns the standard padded base64 form of buf.
func EncodeBase64(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}

// Decode converts data written in f into a single buffer. Line formats decode
// each line and concatenate the results.
func Decode(f Format, data []byte) ([]byte, error) {
	switch f {
	case FormatRaw, "":
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case FormatHex:
		return DecodeHex(string(data))
	case FormatBase64:
		return DecodeBase64(string(data))
	case FormatHexLines, FormatBase64Lines:
		lines, err := DecodeLines(f, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return bytes.Join(lines, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Encode renders buf in f. Line formats render as their single-buffer
// counterpart.
func Encode(f Format, buf []byte) (string, error) {
	switch f {
	case FormatRaw, "":
		return string(buf), nil
	case FormatHex, FormatHexLines:
		return EncodeHex(buf), nil
	case FormatBase64, FormatBase64Lines:
		return EncodeBase64(buf), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// ReadLines returns one buffer per line of r with line terminators removed.
// Blank lines are kept as empty buffers so line numbers stay aligned.
func ReadLines(r io.Reader) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lines := [][]byte{}
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		dup := make([]byte, len(line))
		copy(dup, line)
		lines = append(lines, dup)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// DecodeLines reads r line by line and decodes each line in f. Raw, hex, and
// base64 are treated as their line-oriented forms here.
func DecodeLines(f Format, r io.Reader) ([][]byte, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	var decode func(string) ([]byte, error)
	switch f {
	case FormatRaw, "":
		return lines, nil
	case FormatHex, FormatHexLines:
		decode = DecodeHex
	case FormatBase64, FormatBase64Lines:
		decode = DecodeBase64
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	out := make([][]byte, len(lines))
	for i, line := range lines {
		b, err := decode(string(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out[i] = b
	}
	return out, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
