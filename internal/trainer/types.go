package trainer

import "gonum.org/v1/gonum/mat"

// Model is the borrowed training model. Train and Eval switch its mode;
// Forward runs prediction on a stacked mini-batch, one example per row.
type Model interface {
	Train()
	Eval()
	Forward(inputs *mat.Dense) (*mat.Dense, error)
}

// LossFunc returns one loss per row of predictions, with no reduction
// applied.
type LossFunc func(predictions, targets *mat.Dense) ([]float64, error)

// Updater reduces a mini-batch of per-example losses and performs one
// weight update. Whatever optimizer that takes belongs to the
// implementation, not to the caller.
type Updater interface {
	ApplyUpdate(losses []float64) error
}

type Config struct {
	// BatchSize is the mini-batch target size and the per-batch unit of the
	// loss-history window. Must be positive.
	BatchSize int
	// EpochLength is the number of incoming batches per epoch; the history
	// holds BatchSize*EpochLength values. Must be positive.
	EpochLength int
	// LossThreshold force-selects any example whose raw loss exceeds it.
	// Zero disables the override; negative values are rejected.
	LossThreshold float64
}
