package history

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := New(capacity)
		require.Error(t, err)
	}
}

func TestRecordKeepsInsertionOrder(t *testing.T) {
	h, err := New(10)
	require.NoError(t, err)

	h.Record([]float64{1, 2, 3})
	h.Record([]float64{4, 5})

	require.Equal(t, []float64{1, 2, 3, 4, 5}, h.Snapshot())
	require.Equal(t, 5, h.Len())
}

func TestRecordEvictsOldestPastCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		chunks   [][]float64
		want     []float64
	}{
		{
			name:     "overflow across records",
			capacity: 5,
			chunks:   [][]float64{{1, 2, 3}, {4, 5, 6, 7, 8}},
			want:     []float64{4, 5, 6, 7, 8},
		},
		{
			name:     "single record larger than capacity",
			capacity: 3,
			chunks:   [][]float64{{1, 2, 3, 4, 5}},
			want:     []float64{3, 4, 5},
		},
		{
			name:     "exactly at capacity",
			capacity: 4,
			chunks:   [][]float64{{1, 2}, {3, 4}},
			want:     []float64{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.capacity)
			require.NoError(t, err)
			for _, chunk := range tt.chunks {
				h.Record(chunk)
			}
			require.Equal(t, tt.want, h.Snapshot())
		})
	}
}

func TestLenNeverExceedsCapacity(t *testing.T) {
	const capacity = 10
	h, err := New(capacity)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	var expected []float64
	var next float64

	for i := 0; i < 50; i++ {
		chunk := make([]float64, 1+rng.Intn(7))
		for j := range chunk {
			next++
			chunk[j] = next
		}
		h.Record(chunk)
		expected = append(expected, chunk...)
		if len(expected) > capacity {
			expected = expected[len(expected)-capacity:]
		}

		require.LessOrEqual(t, h.Len(), capacity)
		require.Equal(t, expected, h.Snapshot())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h, err := New(4)
	require.NoError(t, err)
	h.Record([]float64{1, 2, 3})

	snap := h.Snapshot()
	snap[0] = 99

	require.Equal(t, []float64{1, 2, 3}, h.Snapshot())
}
