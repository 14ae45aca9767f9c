// Package crf implements a linear-chain Conditional Random Field over
// padded, masked batches of sequences.
package crf

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrShapeMismatch reports disagreeing tensor dimensions.
	ErrShapeMismatch = errors.New("crf: shape mismatch")
	// ErrEmptyBatch reports a batch with no sequences.
	ErrEmptyBatch = errors.New("crf: empty batch")
)

// initialScore marks states as unreachable before the first position;
// only the start state begins at zero.
const initialScore = -1e4

// Layer holds the transition parameters of a linear-chain CRF.
//
// States are tag indices: 0 is padding, 1..StatesNum-3 are real tags,
// StatesNum-2 is the start-of-sequence state. Transitions[i][j] is the
// score of moving from state i to state j. The table persists across
// batches and is mutated only by checkpoint loading.
type Layer struct {
	StatesNum   int         `json:"states_num"`
	PadIdx      int         `json:"pad_idx"`
	StartIdx    int         `json:"start_idx"`
	Transitions [][]float64 `json:"transitions"`
}

// NewLayer creates a CRF layer for classNum real tags, with transition
// scores drawn from the given source (normal, mean -1, stddev 0.1).
func NewLayer(classNum int, rng *rand.Rand) *Layer {
	statesNum := classNum + 2
	transitions := make([][]float64, statesNum)
	for i := 0; i < statesNum; i++ {
		transitions[i] = make([]float64, statesNum)
		for j := 0; j < statesNum; j++ {
			transitions[i][j] = rng.NormFloat64()*0.1 - 1
		}
	}
	return &Layer{
		StatesNum:   statesNum,
		PadIdx:      0,
		StartIdx:    classNum + 1,
		Transitions: transitions,
	}
}

// GoldScore returns, per sequence, the score of the gold tag path: the
// sum over valid positions of the emission of the gold tag plus the
// transition from the previous valid position's gold tag, starting
// from the start-of-sequence state. Padded positions contribute
// nothing.
func (l *Layer) GoldScore(features [][][]float64, tags [][]int, mask [][]bool) ([]float64, error) {
	if err := l.checkShapes(features, mask); err != nil {
		return nil, err
	}
	if len(tags) != len(features) {
		return nil, fmt.Errorf("%w: %d feature rows, %d tag rows", ErrShapeMismatch, len(features), len(tags))
	}

	scores := make([]float64, len(features))
	for b := range features {
		if len(tags[b]) != len(features[b]) {
			return nil, fmt.Errorf("%w: row %d has %d positions, %d tags", ErrShapeMismatch, b, len(features[b]), len(tags[b]))
		}
		prev := l.StartIdx
		for t := range features[b] {
			if !mask[b][t] {
				continue
			}
			cur := tags[b][t]
			scores[b] += l.Transitions[prev][cur] + features[b][t][cur]
			prev = cur
		}
	}
	return scores, nil
}

// LogPartition returns, per sequence, the log of the sum of
// exponentiated scores over all possible tag paths (the forward
// algorithm). Positions beyond a sequence's length keep the previous
// running score, so padding never contributes.
func (l *Layer) LogPartition(features [][][]float64, mask [][]bool) ([]float64, error) {
	if err := l.checkShapes(features, mask); err != nil {
		return nil, err
	}

	out := make([]float64, len(features))
	for b := range features {
		score := make([]float64, l.StatesNum)
		for i := range score {
			score[i] = initialScore
		}
		score[l.StartIdx] = 0

		next := make([]float64, l.StatesNum)
		acc := make([]float64, l.StatesNum)
		for t := range features[b] {
			if !mask[b][t] {
				continue
			}
			for j := 0; j < l.StatesNum; j++ {
				for i := 0; i < l.StatesNum; i++ {
					acc[i] = score[i] + l.Transitions[i][j] + features[b][t][j]
				}
				next[j] = floats.LogSumExp(acc)
			}
			score, next = next, score
		}
		out[b] = floats.LogSumExp(score)
	}
	return out, nil
}

// Loss returns the negative log-likelihood of the gold tag paths,
// averaged over the batch. It is non-negative up to numeric tolerance.
func (l *Layer) Loss(features [][][]float64, tags [][]int, mask [][]bool) (float64, error) {
	gold, err := l.GoldScore(features, tags, mask)
	if err != nil {
		return 0, err
	}
	logZ, err := l.LogPartition(features, mask)
	if err != nil {
		return 0, err
	}

	var sum float64
	for b := range gold {
		sum += logZ[b] - gold[b]
	}
	return sum / float64(len(gold)), nil
}

func (l *Layer) checkShapes(features [][][]float64, mask [][]bool) error {
	if len(features) == 0 {
		return ErrEmptyBatch
	}
	if len(mask) != len(features) {
		return fmt.Errorf("%w: %d feature rows, %d mask rows", ErrShapeMismatch, len(features), len(mask))
	}
	for b := range features {
		if len(mask[b]) != len(features[b]) {
			return fmt.Errorf("%w: row %d has %d positions, %d mask entries", ErrShapeMismatch, b, len(features[b]), len(mask[b]))
		}
		for t := range features[b] {
			if len(features[b][t]) != l.StatesNum {
				return fmt.Errorf("%w: row %d position %d has %d states, want %d", ErrShapeMismatch, b, t, len(features[b][t]), l.StatesNum)
			}
		}
	}
	return nil
}
