// Package batch provides length bucketing and masking for padded
// batches of variable-length sequences.
package batch

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidLength reports a sequence length that is negative or
// exceeds the padded batch length.
var ErrInvalidLength = errors.New("batch: invalid sequence length")

// Lengths returns the length of each sequence in the batch.
func Lengths[T any](seqs [][]T) []int {
	lengths := make([]int, len(seqs))
	for i, s := range seqs {
		lengths[i] = len(s)
	}
	return lengths
}

// MaxLen returns the largest length in the batch, 0 for an empty batch.
func MaxLen(lengths []int) int {
	maxLen := 0
	for _, l := range lengths {
		if l > maxLen {
			maxLen = l
		}
	}
	return maxLen
}

// SortIndex returns a permutation ordering sequences by non-increasing
// length, ties keeping their original relative order, together with its
// inverse. Reordering a batch by sortIdx and the result by restoreIdx
// recovers the original order exactly.
func SortIndex(lengths []int) (sortIdx, restoreIdx []int) {
	sortIdx = make([]int, len(lengths))
	for i := range sortIdx {
		sortIdx[i] = i
	}
	sort.SliceStable(sortIdx, func(a, b int) bool {
		return lengths[sortIdx[a]] > lengths[sortIdx[b]]
	})
	restoreIdx = make([]int, len(sortIdx))
	for pos, orig := range sortIdx {
		restoreIdx[orig] = pos
	}
	return sortIdx, restoreIdx
}

// Reorder applies a permutation: out[i] = items[idx[i]].
func Reorder[T any](items []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

// Mask builds a batch x maxLen boolean mask where row i has exactly
// lengths[i] leading trues and falses thereafter.
func Mask(lengths []int, maxLen int) ([][]bool, error) {
	mask := make([][]bool, len(lengths))
	for i, l := range lengths {
		if l < 0 || l > maxLen {
			return nil, fmt.Errorf("%w: length %d at row %d, padded length %d", ErrInvalidLength, l, i, maxLen)
		}
		mask[i] = make([]bool, maxLen)
		for t := 0; t < l; t++ {
			mask[i][t] = true
		}
	}
	return mask, nil
}

// ApplyMask zeroes feature vectors at padded positions in place, so
// stray encoder values beyond a sequence's length cannot influence
// scoring or decoding.
func ApplyMask(features [][][]float64, mask [][]bool) {
	for b := range features {
		if b >= len(mask) {
			return
		}
		for t := range features[b] {
			if t < len(mask[b]) && mask[b][t] {
				continue
			}
			for k := range features[b][t] {
				features[b][t][k] = 0
			}
		}
	}
}
