// Package encoder produces per-position state scores for token
// sequences.
package encoder

import "errors"

// Recognized recurrent cell types.
const (
	CellLSTM = "lstm"
	CellGRU  = "gru"
)

// ErrUnknownCellType reports an unrecognized recurrent cell type in
// the configuration. Construction fails; the type is never defaulted.
var ErrUnknownCellType = errors.New("encoder: unknown cell type")

// Encoder turns token sequences into per-position state scores.
//
// Implementations return a tensor of shape batch x maxLen x outDim,
// where maxLen is the largest length in the batch. lengths[b] must not
// exceed len(words[b]).
type Encoder interface {
	Features(words [][]string, lengths []int) [][][]float64
}
