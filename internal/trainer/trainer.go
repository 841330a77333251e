package trainer

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"selective-backprop/internal/history"
	"selective-backprop/internal/percentile"
	"selective-backprop/internal/selection"
)

// SelectiveBackprop decides, per training example, whether the example joins
// the next gradient-update mini-batch. Examples whose loss is high relative
// to a rolling history of recently observed losses are kept with high
// probability; the rest are dropped without ever reaching the update step.
//
// Not safe for concurrent use: calls to Process must come from a single
// training loop.
type SelectiveBackprop struct {
	model   Model
	loss    LossFunc
	updater Updater

	hist   *history.History
	policy *selection.Policy
	acc    *Accumulator
}

func New(cfg Config, model Model, loss LossFunc, updater Updater, rng *rand.Rand) (*SelectiveBackprop, error) {
	if cfg.BatchSize <= 0 {
		return nil, errors.New("batch size must be greater than zero")
	}
	if cfg.EpochLength <= 0 {
		return nil, errors.New("epoch length must be greater than zero")
	}
	if model == nil {
		return nil, errors.New("model is required")
	}
	if loss == nil {
		return nil, errors.New("loss function is required")
	}
	if updater == nil {
		return nil, errors.New("updater is required")
	}

	hist, err := history.New(cfg.BatchSize * cfg.EpochLength)
	if err != nil {
		return nil, err
	}
	policy, err := selection.NewPolicy(cfg.LossThreshold, rng)
	if err != nil {
		return nil, err
	}

	return &SelectiveBackprop{
		model:   model,
		loss:    loss,
		updater: updater,
		hist:    hist,
		policy:  policy,
		acc:     newAccumulator(cfg.BatchSize),
	}, nil
}

// Process offers one incoming batch to the selector. losses holds the
// unreduced per-example losses for the rows of inputs and targets, computed
// by the caller without gradient tracking. Selected examples accumulate
// across calls; whenever enough have been kept to fill a mini-batch, the
// model is switched to training mode, updated once on the accumulated
// examples, and switched back. The mean of the fired mini-batch's losses is
// returned with fired=true; if several mini-batches fire within one call,
// the last one's mean is reported. Collaborator errors propagate unwrapped.
func (s *SelectiveBackprop) Process(losses []float64, inputs, targets *mat.Dense) (meanLoss float64, fired bool, err error) {
	rows, _ := inputs.Dims()
	targetRows, _ := targets.Dims()
	if len(losses) != rows || len(losses) != targetRows {
		return 0, false, fmt.Errorf("batch size mismatch: %d losses, %d input rows, %d target rows",
			len(losses), rows, targetRows)
	}

	buf := make([]float64, len(losses))
	copy(buf, losses)

	s.hist.Record(buf)
	ranks := percentile.Ranks(s.hist.Snapshot(), buf)
	probs := selection.Probabilities(ranks)
	mask := s.policy.Mask(probs, buf)

	for i, keep := range mask {
		if !keep {
			continue
		}
		s.acc.Add(inputs.RawRowView(i), targets.RawRowView(i))
		if !s.acc.Full() {
			continue
		}
		mean, fireErr := s.fire()
		if fireErr != nil {
			return 0, false, fireErr
		}
		meanLoss, fired = mean, true
	}
	return meanLoss, fired, nil
}

// Pending reports how many selected examples are waiting for the next
// mini-batch to fill.
func (s *SelectiveBackprop) Pending() int {
	return s.acc.Len()
}

// HistorySize reports how many loss values the rolling history currently
// holds.
func (s *SelectiveBackprop) HistorySize() int {
	return s.hist.Len()
}

// fire runs one weight update on the accumulated mini-batch. The
// accumulator is reset only after the update succeeds; a collaborator
// failure leaves the pending examples in place, so nothing is silently
// dropped on the way to the caller.
func (s *SelectiveBackprop) fire() (float64, error) {
	batchInputs, batchTargets := s.acc.Stack()

	s.model.Train()
	defer s.model.Eval()

	predictions, err := s.model.Forward(batchInputs)
	if err != nil {
		return 0, err
	}
	batchLosses, err := s.loss(predictions, batchTargets)
	if err != nil {
		return 0, err
	}
	if err := s.updater.ApplyUpdate(batchLosses); err != nil {
		return 0, err
	}

	s.acc.Reset()
	return stat.Mean(batchLosses, nil), nil
}
