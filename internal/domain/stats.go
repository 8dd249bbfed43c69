package domain

import (
	"math"
	"sort"
)

// varianceFloor keeps near-constant columns from dividing by zero.
const varianceFloor = 1e-12

// ZScores standardizes values against the mean and population variance of
// their finite members. Missing (non-finite) entries score 0.0, and a column
// with fewer than two finite values scores all zeros.
func ZScores(values []float64) []float64 {
	out := make([]float64, len(values))

	var sum float64
	var n int
	for _, v := range values {
		if isFinite(v) {
			sum += v
			n++
		}
	}
	if n < 2 {
		return out
	}

	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		if isFinite(v) {
			d := v - mean
			sq += d * d
		}
	}
	std := math.Sqrt(math.Max(sq/float64(n), varianceFloor))

	for i, v := range values {
		if isFinite(v) {
			out[i] = (v - mean) / std
		}
	}
	return out
}

// PercentileRank returns 100 * (count of column values <= v) / len(column).
// Ties share the same rank. An empty column ranks 0.
func PercentileRank(column []float64, v float64) float64 {
	if len(column) == 0 {
		return 0
	}
	var count int
	for _, x := range column {
		if x <= v {
			count++
		}
	}
	return 100 * float64(count) / float64(len(column))
}

// PercentileRanks returns PercentileRank(column, column[i]) for every i,
// sorting once instead of scanning the column per query.
func PercentileRanks(column []float64) []float64 {
	out := make([]float64, len(column))
	if len(column) == 0 {
		return out
	}

	// NaN never compares <= anything, so it only counts toward the total.
	sorted := make([]float64, 0, len(column))
	for _, x := range column {
		if !math.IsNaN(x) {
			sorted = append(sorted, x)
		}
	}
	sort.Float64s(sorted)

	total := float64(len(column))
	for i, v := range column {
		if math.IsNaN(v) {
			continue
		}
		count := sort.Search(len(sorted), func(k int) bool { return sorted[k] > v })
		out[i] = 100 * float64(count) / total
	}
	return out
}

// countFinite returns how many values are finite.
func countFinite(values []float64) int {
	var n int
	for _, v := range values {
		if isFinite(v) {
			n++
		}
	}
	return n
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
