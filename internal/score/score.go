// Package score rates byte sequences by how closely they resemble English
// text. Higher scores are more plausible.
package score

import "math"

const (
	// multiplier scales the percentage frequencies in the letter table.
	multiplier = 10.0

	// Flat weight for letters outside the table and for the space character.
	flatWeight = multiplier * 1.0

	// Penalty applied to every byte that is not a letter or a space.
	Penalty = -100.0
)

// letterFrequency holds approximate English letter frequencies in percent
// for the most common letters. Both cases share a weight.
var letterFrequency = map[byte]float64{
	'e': 12.10,
	't': 8.94,
	'a': 8.55,
	'o': 7.47,
	'i': 7.33,
	'n': 7.17,
	's': 6.73,
	'r': 6.33,
	'h': 4.96,
	'l': 4.21,
	'd': 3.87,
	'u': 2.68,
}

// weights is indexed by byte value.
var weights [256]float64

func init() {
	for i := range weights {
		weights[i] = Penalty
	}
	for c := byte('a'); c <= 'z'; c++ {
		weights[c] = flatWeight
		weights[c-'a'+'A'] = flatWeight
	}
	weights[' '] = flatWeight
	for c, freq := range letterFrequency {
		weights[c] = multiplier * freq
		weights[c-'a'+'A'] = multiplier * freq
	}
}

// Weight returns the contribution of a single byte to a score.
func Weight(b byte) float64 {
	return weights[b]
}

// Bytes sums the per-byte weights of buf and rounds the total to the
// nearest integer, halves away from zero.
func Bytes(buf []byte) int {
	var total float64
	for _, b := range buf {
		total += weights[b]
	}
	return int(math.Round(total))
}
