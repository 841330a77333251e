package trainer

import "gonum.org/v1/gonum/mat"

// Accumulator holds selected examples until a full mini-batch is assembled.
// Rows are stored as detached copies, so callers may reuse or mutate the
// batches the rows came from.
type Accumulator struct {
	target  int
	inputs  [][]float64
	targets [][]float64
}

func newAccumulator(target int) *Accumulator {
	return &Accumulator{
		target:  target,
		inputs:  make([][]float64, 0, target),
		targets: make([][]float64, 0, target),
	}
}

func (a *Accumulator) Add(input, target []float64) {
	in := make([]float64, len(input))
	copy(in, input)
	tg := make([]float64, len(target))
	copy(tg, target)
	a.inputs = append(a.inputs, in)
	a.targets = append(a.targets, tg)
}

func (a *Accumulator) Full() bool {
	return len(a.inputs) == a.target
}

func (a *Accumulator) Len() int {
	return len(a.inputs)
}

// Stack assembles the pending examples into two batch matrices in insertion
// order. The pending list is left intact; call Reset once the update that
// consumed the batch has succeeded.
func (a *Accumulator) Stack() (inputs, targets *mat.Dense) {
	return stackRows(a.inputs), stackRows(a.targets)
}

func (a *Accumulator) Reset() {
	a.inputs = a.inputs[:0]
	a.targets = a.targets[:0]
}

func stackRows(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
