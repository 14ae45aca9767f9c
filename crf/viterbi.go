package crf

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Decode finds the highest-scoring tag path for each sequence using
// the Viterbi algorithm. Sequences are decoded independently and in
// parallel; results are returned in input order. The decoded path for
// a sequence has exactly its unpadded length. Ties at the final
// position resolve to the lowest state index.
func (l *Layer) Decode(features [][][]float64, mask [][]bool) ([][]int, error) {
	if err := l.checkShapes(features, mask); err != nil {
		return nil, err
	}

	paths := make([][]int, len(features))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for b := range features {
		b := b
		g.Go(func() error {
			paths[b] = l.decodeOne(features[b], mask[b])
			return nil
		})
	}
	_ = g.Wait()
	return paths, nil
}

// decodeOne runs Viterbi over a single sequence. The per-position
// recursion is strictly sequential.
func (l *Layer) decodeOne(features [][]float64, mask []bool) []int {
	seqLen := 0
	for _, m := range mask {
		if m {
			seqLen++
		}
	}
	if seqLen == 0 {
		return []int{}
	}

	score := make([]float64, l.StatesNum)
	for i := range score {
		score[i] = initialScore
	}
	score[l.StartIdx] = 0

	// backPointers[t][j] is the best predecessor of state j at position t.
	backPointers := make([][]int, seqLen)
	for t := 0; t < seqLen; t++ {
		next := make([]float64, l.StatesNum)
		back := make([]int, l.StatesNum)
		for j := 0; j < l.StatesNum; j++ {
			best := math.Inf(-1)
			bestPrev := 0
			for i := 0; i < l.StatesNum; i++ {
				s := score[i] + l.Transitions[i][j]
				if s > best {
					best = s
					bestPrev = i
				}
			}
			next[j] = best + features[t][j]
			back[j] = bestPrev
		}
		score = next
		backPointers[t] = back
	}

	path := make([]int, seqLen)
	path[seqLen-1] = floats.MaxIdx(score)
	for t := seqLen - 1; t > 0; t-- {
		path[t-1] = backPointers[t][path[t]]
	}
	return path
}
