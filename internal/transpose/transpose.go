// Package transpose splits byte buffers into fixed-size chunks and regroups
// bytes at matching offsets across those chunks.
package transpose

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when a chunk size is not positive.
var ErrInvalidSize = errors.New("chunk size must be positive")

// Partition slices buf into consecutive chunks of size bytes. The last chunk
// is shorter when len(buf) is not a multiple of size. Chunks are copies.
func Partition(buf []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("partition: %w: %d", ErrInvalidSize, size)
	}
	chunks := make([][]byte, 0, (len(buf)+size-1)/size)
	for start := 0; start < len(buf); start += size {
		end := min(start+size, len(buf))
		chunk := make([]byte, end-start)
		copy(chunk, buf[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Transpose returns one output chunk per byte offset of the first input
// chunk. Output chunk i holds byte i of every input chunk, with 0 standing in
// for chunks too short to have an index i.
//
// Transposing twice restores the input, except that short chunks come back
// zero-padded to the length of the first chunk.
func Transpose(chunks [][]byte) [][]byte {
	if len(chunks) == 0 {
		return [][]byte{}
	}
	width := len(chunks[0])
	out := make([][]byte, width)
	for i := range out {
		column := make([]byte, len(chunks))
		for j, chunk := range chunks {
			if i < len(chunk) {
				column[j] = chunk[i]
			}
		}
		out[i] = column
	}
	return out
}
