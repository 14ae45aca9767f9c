package encoder

import "math"

// Cell advances one direction of a recurrent pass by a single step.
type Cell interface {
	// StateSize returns the length of the recurrent state vector. The
	// first hiddenDim entries of a state are the visible hidden vector.
	StateSize() int
	// Step consumes an input vector and the previous state, returning
	// the next state.
	Step(x, state []float64) []float64
}

// CellParams holds the weights of one recurrent direction: the input
// and recurrent matrices with gates stacked along the rows, plus bias.
// An LSTM uses 4*hidden rows (input, forget, candidate, output gates),
// a GRU 3*hidden (reset, update, candidate).
type CellParams struct {
	W [][]float64 `json:"w"`
	U [][]float64 `json:"u"`
	B []float64   `json:"b"`
}

// lstmCell keeps its hidden vector and cell memory stacked in one
// state slice: state[:hidden] is h, state[hidden:] is c.
type lstmCell struct {
	hidden int
	p      *CellParams
}

func (c *lstmCell) StateSize() int { return 2 * c.hidden }

func (c *lstmCell) Step(x, state []float64) []float64 {
	h, cPrev := state[:c.hidden], state[c.hidden:]
	wx := matVec(c.p.W, x)
	uh := matVec(c.p.U, h)

	next := make([]float64, 2*c.hidden)
	for k := 0; k < c.hidden; k++ {
		i := sigmoid(wx[k] + uh[k] + c.p.B[k])
		f := sigmoid(wx[c.hidden+k] + uh[c.hidden+k] + c.p.B[c.hidden+k])
		g := math.Tanh(wx[2*c.hidden+k] + uh[2*c.hidden+k] + c.p.B[2*c.hidden+k])
		o := sigmoid(wx[3*c.hidden+k] + uh[3*c.hidden+k] + c.p.B[3*c.hidden+k])
		cNew := f*cPrev[k] + i*g
		next[k] = o * math.Tanh(cNew)
		next[c.hidden+k] = cNew
	}
	return next
}

type gruCell struct {
	hidden int
	p      *CellParams
}

func (c *gruCell) StateSize() int { return c.hidden }

func (c *gruCell) Step(x, state []float64) []float64 {
	wx := matVec(c.p.W, x)
	uh := matVec(c.p.U, state)

	next := make([]float64, c.hidden)
	for k := 0; k < c.hidden; k++ {
		r := sigmoid(wx[k] + uh[k] + c.p.B[k])
		z := sigmoid(wx[c.hidden+k] + uh[c.hidden+k] + c.p.B[c.hidden+k])
		n := math.Tanh(wx[2*c.hidden+k] + r*uh[2*c.hidden+k] + c.p.B[2*c.hidden+k])
		next[k] = (1-z)*n + z*state[k]
	}
	return next
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(m))
	for r, row := range m {
		s := 0.0
		for k, x := range v {
			s += row[k] * x
		}
		out[r] = s
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
