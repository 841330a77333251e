package model

import "errors"

// SGD performs one gradient step on a Linear model per update. The loss
// reduction is implicit: the model's cached pass already averages the
// cross-entropy gradient over the mini-batch.
type SGD struct {
	Model        *Linear
	LearningRate float64
}

func NewSGD(model *Linear, lr float64) (*SGD, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if lr <= 0 {
		return nil, errors.New("learning rate must be greater than zero")
	}
	return &SGD{Model: model, LearningRate: lr}, nil
}

func (o *SGD) ApplyUpdate(losses []float64) error {
	if len(losses) == 0 {
		return errors.New("no losses to update from")
	}
	return o.Model.step(o.LearningRate)
}
