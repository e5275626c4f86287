// Package stats implements the numeric reductions used by the report queries.
// Every function treats its input as read-only.
package stats

import (
	"sort"

	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ErrEmptyInput is returned by Mean, Median and Mode when called with no scores.
var ErrEmptyInput = shared.NewDomainError("stats", "Reduce", shared.ErrEmptyInput, "no scores to reduce")

// Sum returns the left-fold sum of scores. Sum(nil) is 0.
func Sum(scores []float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	return total
}

// Mean returns the arithmetic mean of scores.
func Mean(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyInput
	}
	return Sum(scores) / float64(len(scores)), nil
}

// Median returns the middle value of scores, or the average of the two middle
// values when the count is even. The input slice is never reordered.
func Median(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyInput
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// Frequencies counts how many times each distinct score occurs.
func Frequencies(scores []float64) map[float64]int {
	freq := make(map[float64]int, len(scores))
	for _, s := range scores {
		freq[s]++
	}
	return freq
}

// Mode returns every value that occurs with the highest frequency, ascending.
// A result with more than one value is a normal multi-modal outcome.
func Mode(scores []float64) ([]float64, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyInput
	}

	freq := Frequencies(scores)
	maxCount := 0
	for _, count := range freq {
		if count > maxCount {
			maxCount = count
		}
	}

	modes := make([]float64, 0, 1)
	for value, count := range freq {
		if count == maxCount {
			modes = append(modes, value)
		}
	}
	sort.Float64s(modes)

	return modes, nil
}
