package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a one-layer softmax classifier used by the training demo. While
// in training mode it caches the activations of its most recent forward and
// loss passes so SGD can form gradients without an autograd system.
type Linear struct {
	weights *mat.Dense // classes x features
	biases  []float64
	inDim   int
	classes int

	training bool

	lastInputs  *mat.Dense
	lastProbs   *mat.Dense
	lastTargets *mat.Dense
}

func NewLinear(inDim, classes int, rng *rand.Rand) (*Linear, error) {
	if inDim <= 0 || classes < 2 {
		return nil, errors.New("need a positive input dim and at least two classes")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	weights := mat.NewDense(classes, inDim, nil)
	for c := 0; c < classes; c++ {
		for j := 0; j < inDim; j++ {
			weights.Set(c, j, rng.NormFloat64()*0.01)
		}
	}
	return &Linear{
		weights: weights,
		biases:  make([]float64, classes),
		inDim:   inDim,
		classes: classes,
	}, nil
}

func (m *Linear) Train() { m.training = true }
func (m *Linear) Eval()  { m.training = false }

// Forward computes softmax class probabilities for each input row.
func (m *Linear) Forward(inputs *mat.Dense) (*mat.Dense, error) {
	rows, cols := inputs.Dims()
	if cols != m.inDim {
		return nil, fmt.Errorf("input has %d features, model expects %d", cols, m.inDim)
	}

	out := mat.NewDense(rows, m.classes, nil)
	logits := make([]float64, m.classes)
	for i := 0; i < rows; i++ {
		row := inputs.RawRowView(i)
		for c := 0; c < m.classes; c++ {
			logits[c] = m.biases[c] + floats.Dot(m.weights.RawRowView(c), row)
		}
		out.SetRow(i, softmax(logits))
	}

	if m.training {
		m.lastInputs = mat.DenseCopyOf(inputs)
	}
	return out, nil
}

// CrossEntropy returns one loss per row. targets holds one-hot rows.
func (m *Linear) CrossEntropy(predictions, targets *mat.Dense) ([]float64, error) {
	rows, cols := predictions.Dims()
	targetRows, targetCols := targets.Dims()
	if rows != targetRows || cols != m.classes || targetCols != m.classes {
		return nil, fmt.Errorf("loss shapes mismatch: predictions %dx%d, targets %dx%d, %d classes",
			rows, cols, targetRows, targetCols, m.classes)
	}

	losses := make([]float64, rows)
	for i := range losses {
		c := floats.MaxIdx(targets.RawRowView(i))
		losses[i] = -math.Log(predictions.At(i, c) + 1e-8)
	}

	if m.training {
		m.lastProbs = mat.DenseCopyOf(predictions)
		m.lastTargets = mat.DenseCopyOf(targets)
	}
	return losses, nil
}

// step applies one mean cross-entropy gradient step from the cached
// training-mode pass. For softmax with one-hot targets the logit gradient
// is probs - targets.
func (m *Linear) step(lr float64) error {
	if m.lastInputs == nil || m.lastProbs == nil || m.lastTargets == nil {
		return errors.New("no cached training-mode pass to update from")
	}

	n, _ := m.lastInputs.Dims()
	for i := 0; i < n; i++ {
		x := m.lastInputs.RawRowView(i)
		probs := m.lastProbs.RawRowView(i)
		onehot := m.lastTargets.RawRowView(i)
		for c := 0; c < m.classes; c++ {
			g := (probs[c] - onehot[c]) / float64(n)
			m.biases[c] -= lr * g
			floats.AddScaled(m.weights.RawRowView(c), -lr*g, x)
		}
	}

	m.lastInputs, m.lastProbs, m.lastTargets = nil, nil, nil
	return nil
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	values := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		values[i] = math.Exp(v - maxLogit)
		sum += values[i]
	}
	for i := range values {
		values[i] /= sum
	}
	return values
}
