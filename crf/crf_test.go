package crf

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

// testLayer builds a layer for 2 real tags (statesNum = 4) with fixed
// transitions so scores can be verified by hand.
func testLayer() *Layer {
	return &Layer{
		StatesNum: 4,
		PadIdx:    0,
		StartIdx:  3,
		Transitions: [][]float64{
			{0.1, 0.2, 0.3, 0.4},
			{0.5, 0.6, 0.7, 0.8},
			{0.9, 1.0, 1.1, 1.2},
			{1.3, 1.4, 1.5, 1.6},
		},
	}
}

func randomFeatures(rng *rand.Rand, batchSize, maxLen, statesNum int) [][][]float64 {
	features := make([][][]float64, batchSize)
	for b := 0; b < batchSize; b++ {
		features[b] = make([][]float64, maxLen)
		for t := 0; t < maxLen; t++ {
			features[b][t] = make([]float64, statesNum)
			for k := 0; k < statesNum; k++ {
				features[b][t][k] = rng.NormFloat64()
			}
		}
	}
	return features
}

func fullMask(batchSize, maxLen int) [][]bool {
	mask := make([][]bool, batchSize)
	for b := 0; b < batchSize; b++ {
		mask[b] = make([]bool, maxLen)
		for t := 0; t < maxLen; t++ {
			mask[b][t] = true
		}
	}
	return mask
}

// pathScore scores one explicit path the way the layer defines it:
// start transition, then per-position transition plus emission.
func pathScore(l *Layer, features [][]float64, path []int) float64 {
	score := 0.0
	prev := l.StartIdx
	for t, y := range path {
		score += l.Transitions[prev][y] + features[t][y]
		prev = y
	}
	return score
}

func TestGoldScore(t *testing.T) {
	l := testLayer()
	features := [][][]float64{{
		{0, 1.0, 2.0, 0},
		{0, 3.0, 4.0, 0},
	}}
	tags := [][]int{{1, 2}}
	mask := [][]bool{{true, true}}

	got, err := l.GoldScore(features, tags, mask)
	if err != nil {
		t.Fatal(err)
	}

	// start->1 (1.4) + emit 1.0 + 1->2 (0.7) + emit 4.0 = 7.1
	want := 7.1
	if math.Abs(got[0]-want) > 1e-10 {
		t.Errorf("GoldScore = %v, want %v", got[0], want)
	}
}

func TestLogPartitionBruteForce(t *testing.T) {
	l := testLayer()
	rng := rand.New(rand.NewSource(7))
	features := randomFeatures(rng, 1, 3, l.StatesNum)
	mask := fullMask(1, 3)

	got, err := l.LogPartition(features, mask)
	if err != nil {
		t.Fatal(err)
	}

	// Verify logZ by brute force over all state paths.
	Z := 0.0
	for y0 := 0; y0 < l.StatesNum; y0++ {
		for y1 := 0; y1 < l.StatesNum; y1++ {
			for y2 := 0; y2 < l.StatesNum; y2++ {
				Z += math.Exp(pathScore(l, features[0], []int{y0, y1, y2}))
			}
		}
	}
	want := math.Log(Z)
	if math.Abs(got[0]-want) > 1e-6 {
		t.Errorf("LogPartition = %v, want %v", got[0], want)
	}
}

func TestGoldScoreNeverExceedsLogPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	l := NewLayer(3, rng)
	features := randomFeatures(rng, 4, 5, l.StatesNum)
	mask, lengths := fullMask(4, 5), []int{5, 3, 2, 1}
	for b, n := range lengths {
		for t2 := n; t2 < 5; t2++ {
			mask[b][t2] = false
		}
	}

	for trial := 0; trial < 10; trial++ {
		tags := make([][]int, 4)
		for b := range tags {
			tags[b] = make([]int, 5)
			for t2 := range tags[b] {
				tags[b][t2] = 1 + rng.Intn(3)
			}
		}

		gold, err := l.GoldScore(features, tags, mask)
		if err != nil {
			t.Fatal(err)
		}
		logZ, err := l.LogPartition(features, mask)
		if err != nil {
			t.Fatal(err)
		}
		for b := range gold {
			if gold[b] > logZ[b]+1e-9 {
				t.Errorf("trial %d row %d: gold %v > logZ %v", trial, b, gold[b], logZ[b])
			}
		}
	}
}

func TestLogPartitionIgnoresPadding(t *testing.T) {
	l := testLayer()
	rng := rand.New(rand.NewSource(3))

	// Same 2-position sequence, once alone and once padded to length 5
	// inside a batch with a longer sequence.
	short := randomFeatures(rng, 1, 2, l.StatesNum)
	alone, err := l.LogPartition(short, fullMask(1, 2))
	if err != nil {
		t.Fatal(err)
	}

	padded := randomFeatures(rng, 2, 5, l.StatesNum)
	for t2 := 0; t2 < 2; t2++ {
		copy(padded[1][t2], short[0][t2])
	}
	mask := fullMask(2, 5)
	for t2 := 2; t2 < 5; t2++ {
		mask[1][t2] = false
	}

	batched, err := l.LogPartition(padded, mask)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(batched[1]-alone[0]) > 1e-9 {
		t.Errorf("padded logZ = %v, want %v", batched[1], alone[0])
	}
}

func TestLossNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	l := NewLayer(4, rng)
	features := randomFeatures(rng, 3, 4, l.StatesNum)
	mask := fullMask(3, 4)
	tags := [][]int{{1, 2, 3, 4}, {4, 3, 2, 1}, {2, 2, 2, 2}}

	loss, err := l.Loss(features, tags, mask)
	if err != nil {
		t.Fatal(err)
	}
	if loss < -1e-9 {
		t.Errorf("Loss = %v, want >= 0", loss)
	}
}

func TestDecodeDominantPath(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	l := NewLayer(2, rng)
	want := []int{1, 2, 2, 1}

	// Emissions dominate transitions by far, so the decoded path must
	// follow them exactly.
	features := make([][][]float64, 1)
	features[0] = make([][]float64, len(want))
	for t2, y := range want {
		features[0][t2] = make([]float64, l.StatesNum)
		features[0][t2][y] = 100
	}

	paths, err := l.Decode(features, fullMask(1, len(want)))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(paths[0], want) {
		t.Errorf("Decode = %v, want %v", paths[0], want)
	}
}

func TestDecodeMatchesBruteForce(t *testing.T) {
	l := testLayer()
	rng := rand.New(rand.NewSource(19))
	features := randomFeatures(rng, 1, 3, l.StatesNum)

	paths, err := l.Decode(features, fullMask(1, 3))
	if err != nil {
		t.Fatal(err)
	}

	best := math.Inf(-1)
	var bestPath []int
	for y0 := 0; y0 < l.StatesNum; y0++ {
		for y1 := 0; y1 < l.StatesNum; y1++ {
			for y2 := 0; y2 < l.StatesNum; y2++ {
				p := []int{y0, y1, y2}
				if s := pathScore(l, features[0], p); s > best {
					best = s
					bestPath = p
				}
			}
		}
	}
	if !reflect.DeepEqual(paths[0], bestPath) {
		t.Errorf("Decode = %v, want %v", paths[0], bestPath)
	}
}

func TestDecodeTiesPickLowestState(t *testing.T) {
	// Zero transitions and identical emissions make every path score
	// equal, so the tie-break must settle on the lowest state index.
	l := &Layer{StatesNum: 4, PadIdx: 0, StartIdx: 3, Transitions: make([][]float64, 4)}
	for i := range l.Transitions {
		l.Transitions[i] = make([]float64, 4)
	}
	features := [][][]float64{{
		{1, 1, 1, 1},
		{1, 1, 1, 1},
	}}

	paths, err := l.Decode(features, fullMask(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(paths[0], []int{0, 0}) {
		t.Errorf("Decode = %v, want [0 0]", paths[0])
	}
}

func TestDecodeLengthMatchesMask(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	l := NewLayer(2, rng)
	features := randomFeatures(rng, 3, 4, l.StatesNum)
	mask := fullMask(3, 4)
	lengths := []int{4, 2, 0}
	for b, n := range lengths {
		for t2 := n; t2 < 4; t2++ {
			mask[b][t2] = false
		}
	}

	paths, err := l.Decode(features, mask)
	if err != nil {
		t.Fatal(err)
	}
	for b, n := range lengths {
		if len(paths[b]) != n {
			t.Errorf("row %d: decoded length %d, want %d", b, len(paths[b]), n)
		}
	}
}

func TestShapeErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewLayer(2, rng)

	if _, err := l.LogPartition(nil, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch: err = %v, want ErrEmptyBatch", err)
	}

	features := randomFeatures(rng, 2, 3, l.StatesNum)
	shortMask := fullMask(1, 3)
	if _, err := l.LogPartition(features, shortMask); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("row count mismatch: err = %v, want ErrShapeMismatch", err)
	}

	badStates := randomFeatures(rng, 1, 3, l.StatesNum+1)
	if _, err := l.Decode(badStates, fullMask(1, 3)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("state dimension mismatch: err = %v, want ErrShapeMismatch", err)
	}

	tags := [][]int{{1, 1, 1}, {1, 1}}
	if _, err := l.GoldScore(features, tags, fullMask(2, 3)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("tag length mismatch: err = %v, want ErrShapeMismatch", err)
	}
}

func TestNewLayerInit(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	l := NewLayer(5, rng)

	if l.StatesNum != 7 {
		t.Errorf("StatesNum = %d, want 7", l.StatesNum)
	}
	if l.PadIdx != 0 || l.StartIdx != 6 {
		t.Errorf("reserved indices: pad=%d start=%d, want 0 and 6", l.PadIdx, l.StartIdx)
	}
	// Normal(-1, 0.1) draws stay close to -1.
	for i := 0; i < l.StatesNum; i++ {
		for j := 0; j < l.StatesNum; j++ {
			v := l.Transitions[i][j]
			if v < -2 || v > 0 {
				t.Errorf("Transitions[%d][%d] = %v, outside expected init range", i, j, v)
			}
		}
	}
}
