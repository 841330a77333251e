package percentile

import (
	"math"
	"sort"
)

const cutPoints = 100

// Ranks scores each query value against the empirical distribution of hist
// and returns one percentile rank per query, in [0, 1).
//
// One hundred cut-points are taken at percentiles 0..99 of hist, linearly
// interpolated between order statistics. The queries are walked in ascending
// value order against the cut-points with a single cursor: each query is
// assigned the index of the first cut-point strictly greater than it,
// divided by 100. Queries at or above the 99th cut-point are never reached
// by the walk and keep rank 0.
//
// With an empty hist there is no reference distribution and every query
// gets rank 0.
func Ranks(hist, queries []float64) []float64 {
	ranks := make([]float64, len(queries))
	if len(queries) == 0 || len(hist) == 0 {
		return ranks
	}

	sorted := make([]float64, len(hist))
	copy(sorted, hist)
	sort.Float64s(sorted)

	order := make([]int, len(queries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return queries[order[a]] < queries[order[b]]
	})

	assigned := make([]int, len(queries))
	cursor := 0
walk:
	for idx := 0; idx < cutPoints; idx++ {
		cut := cutPoint(float64(idx)/cutPoints, sorted)
		for queries[order[cursor]] < cut {
			assigned[order[cursor]] = idx
			cursor++
			if cursor == len(queries) {
				break walk
			}
		}
	}

	for i, idx := range assigned {
		ranks[i] = float64(idx) / cutPoints
	}
	return ranks
}

// cutPoint evaluates the percentile p in [0, 1] of sorted by linear
// interpolation between order statistics: the value at fractional index
// p*(n-1).
func cutPoint(p float64, sorted []float64) float64 {
	fidx := p * float64(len(sorted)-1)
	lo := int(math.Floor(fidx))
	hi := int(math.Ceil(fidx))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (fidx-float64(lo))*(sorted[hi]-sorted[lo])
}
