package encoder

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/happyhackingspace/seqtag/vocab"
)

// BiRNN is a bidirectional recurrent encoder: embedding lookup, one
// recurrent pass per direction, and a linear projection of the
// concatenated hidden vectors to per-state scores.
type BiRNN struct {
	CellType     string           `json:"cell_type"`
	EmbeddingDim int              `json:"embedding_dim"`
	HiddenDim    int              `json:"hidden_dim"`
	OutDim       int              `json:"out_dim"`
	Words        *vocab.WordIndex `json:"words"`
	Embeddings   [][]float64      `json:"embeddings"`
	Fwd          CellParams       `json:"fwd"`
	Bwd          CellParams       `json:"bwd"`
	Proj         [][]float64      `json:"proj"`
	ProjBias     []float64        `json:"proj_bias"`

	fwdCell Cell
	bwdCell Cell
}

// NewBiRNN creates a randomly initialized encoder producing outDim
// scores per position. The cell type must be CellLSTM or CellGRU.
func NewBiRNN(words *vocab.WordIndex, cellType string, embeddingDim, hiddenDim, outDim int, rng *rand.Rand) (*BiRNN, error) {
	var gateRows int
	switch cellType {
	case CellLSTM:
		gateRows = 4 * hiddenDim
	case CellGRU:
		gateRows = 3 * hiddenDim
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCellType, cellType)
	}

	e := &BiRNN{
		CellType:     cellType,
		EmbeddingDim: embeddingDim,
		HiddenDim:    hiddenDim,
		OutDim:       outDim,
		Words:        words,
	}

	embBound := math.Sqrt(3.0 / float64(embeddingDim))
	e.Embeddings = uniformMatrix(rng, words.Size(), embeddingDim, embBound)
	for k := range e.Embeddings[words.PadIdx()] {
		e.Embeddings[words.PadIdx()][k] = 0
	}

	scale := 1 / math.Sqrt(float64(hiddenDim))
	e.Fwd = newCellParams(rng, gateRows, embeddingDim, hiddenDim, scale)
	e.Bwd = newCellParams(rng, gateRows, embeddingDim, hiddenDim, scale)
	e.Proj = uniformMatrix(rng, outDim, 2*hiddenDim, scale)
	e.ProjBias = uniformVector(rng, outDim, scale)

	if err := e.Build(); err != nil {
		return nil, err
	}
	return e, nil
}

// Build wires the recurrent cells from the stored parameters. It must
// be called after deserialization and before Features.
func (e *BiRNN) Build() error {
	switch e.CellType {
	case CellLSTM:
		e.fwdCell = &lstmCell{hidden: e.HiddenDim, p: &e.Fwd}
		e.bwdCell = &lstmCell{hidden: e.HiddenDim, p: &e.Bwd}
	case CellGRU:
		e.fwdCell = &gruCell{hidden: e.HiddenDim, p: &e.Fwd}
		e.bwdCell = &gruCell{hidden: e.HiddenDim, p: &e.Bwd}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCellType, e.CellType)
	}
	return nil
}

// Features returns scores with shape len(words) x max(lengths) x
// OutDim. Positions beyond a sequence's length are zero.
func (e *BiRNN) Features(words [][]string, lengths []int) [][][]float64 {
	maxLen := 0
	for _, l := range lengths {
		if l > maxLen {
			maxLen = l
		}
	}

	out := make([][][]float64, len(words))
	for b := range words {
		out[b] = make([][]float64, maxLen)
		for t := 0; t < maxLen; t++ {
			out[b][t] = make([]float64, e.OutDim)
		}

		n := lengths[b]
		if n == 0 {
			continue
		}
		xs := make([][]float64, n)
		for t := 0; t < n; t++ {
			xs[t] = e.Embeddings[e.Words.Idx(words[b][t])]
		}

		hf := e.run(e.fwdCell, xs, false)
		hb := e.run(e.bwdCell, xs, true)
		for t := 0; t < n; t++ {
			row := out[b][t]
			for o := 0; o < e.OutDim; o++ {
				s := e.ProjBias[o]
				proj := e.Proj[o]
				for k := 0; k < e.HiddenDim; k++ {
					s += proj[k]*hf[t][k] + proj[e.HiddenDim+k]*hb[t][k]
				}
				row[o] = s
			}
		}
	}
	return out
}

// run drives one direction over the inputs, returning the visible
// hidden vector at each position.
func (e *BiRNN) run(cell Cell, xs [][]float64, reverse bool) [][]float64 {
	n := len(xs)
	hs := make([][]float64, n)
	state := make([]float64, cell.StateSize())
	for i := 0; i < n; i++ {
		t := i
		if reverse {
			t = n - 1 - i
		}
		state = cell.Step(xs[t], state)
		hs[t] = state[:e.HiddenDim]
	}
	return hs
}

// SetPretrained replaces embedding rows with pretrained vectors,
// extending the word index with unseen words. Vector dimensionality
// must match EmbeddingDim.
func (e *BiRNN) SetPretrained(words []string, vectors [][]float64) error {
	if len(words) != len(vectors) {
		return fmt.Errorf("encoder: %d words, %d vectors", len(words), len(vectors))
	}
	for i, w := range words {
		if len(vectors[i]) != e.EmbeddingDim {
			return fmt.Errorf("encoder: vector for %q has dim %d, want %d", w, len(vectors[i]), e.EmbeddingDim)
		}
		idx := e.Words.Add(w)
		if idx < len(e.Embeddings) {
			e.Embeddings[idx] = vectors[i]
		} else {
			e.Embeddings = append(e.Embeddings, vectors[i])
		}
	}
	return nil
}

func newCellParams(rng *rand.Rand, gateRows, inputDim, hiddenDim int, bound float64) CellParams {
	return CellParams{
		W: uniformMatrix(rng, gateRows, inputDim, bound),
		U: uniformMatrix(rng, gateRows, hiddenDim, bound),
		B: uniformVector(rng, gateRows, bound),
	}
}

func uniformMatrix(rng *rand.Rand, rows, cols int, bound float64) [][]float64 {
	m := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		m[r] = uniformVector(rng, cols, bound)
	}
	return m
}

func uniformVector(rng *rand.Rand, n int, bound float64) []float64 {
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = (rng.Float64()*2 - 1) * bound
	}
	return v
}
