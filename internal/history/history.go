package history

import "errors"

// History is a bounded FIFO buffer of recently observed per-example loss
// values. It serves as the empirical reference distribution for percentile
// ranking: once full, recording new values evicts the oldest ones.
type History struct {
	values   []float64
	capacity int
}

func New(capacity int) (*History, error) {
	if capacity <= 0 {
		return nil, errors.New("capacity must be greater than zero")
	}
	return &History{
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}, nil
}

// Record appends values at the tail in order, then evicts from the head
// until the buffer is back within capacity.
func (h *History) Record(values []float64) {
	h.values = append(h.values, values...)
	if excess := len(h.values) - h.capacity; excess > 0 {
		h.values = h.values[excess:]
	}
}

// Snapshot returns a copy of the current contents, oldest first. Empty only
// before the first Record call.
func (h *History) Snapshot() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

func (h *History) Len() int {
	return len(h.values)
}

func (h *History) Capacity() int {
	return h.capacity
}
