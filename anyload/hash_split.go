package anyload

import (
	"bytes"
	"sort"
)

// A Hasher is a SampleList with the added capability to
// produce a hash for a given sample.
//
// Hashes should depend only on sample contents, so that
// a split is reproducible across runs.
type Hasher interface {
	SampleList
	Hash(i int) []byte
}

// HashSplit deterministically partitions a Hasher, for
// instance into training and validation samples.
//
// The Hasher h is re-ordered in place so that the samples
// of the left partition come first.
//
// The leftRatio argument specifies the expected fraction
// of samples that should end up on the left partition.
func HashSplit(h Hasher, leftRatio float64) (left, right SampleList) {
	if leftRatio <= 0 {
		return h.Slice(0, 0), h
	} else if leftRatio >= 1 {
		return h, h.Slice(0, 0)
	}
	cutoff := hashCutoff(leftRatio)
	numLeft := 0
	for i := 0; i < h.Len(); i++ {
		if compareHashes(h.Hash(i), cutoff) < 0 {
			h.Swap(numLeft, i)
			numLeft++
		}
	}
	splitIdx := sort.Search(h.Len(), func(i int) bool {
		return compareHashes(h.Hash(i), cutoff) >= 0
	})
	return h.Slice(0, splitIdx), h.Slice(splitIdx, h.Len())
}

// hashCutoff expands a ratio into an 8-byte big-endian
// fraction.
func hashCutoff(ratio float64) []byte {
	res := make([]byte, 8)
	for i := range res {
		ratio *= 256
		digit := int(ratio)
		ratio -= float64(digit)
		if digit > 255 {
			digit = 255
		}
		res[i] = byte(digit)
	}
	return res
}

// compareHashes compares two hashes as fractions, treating
// the shorter one as if it were padded with zeros.
func compareHashes(h1, h2 []byte) int {
	if len(h1) < len(h2) {
		h1 = append(append([]byte{}, h1...), make([]byte, len(h2)-len(h1))...)
	} else if len(h2) < len(h1) {
		h2 = append(append([]byte{}, h2...), make([]byte, len(h1)-len(h2))...)
	}
	return bytes.Compare(h1, h2)
}
