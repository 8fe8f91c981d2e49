// Package stats consumes the round-trip samples produced by the client roles.
// The core contract is small: one duration per iteration, handed to a
// Recorder. What happens to the sample (printing, histograms, summaries,
// metrics export) is decided here, not in the measurement loops.
package stats

import "math"

// Stats holds summary statistics over a set of float64 samples
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
}

// NewStats computes min, max, mean and the population standard deviation
// over the full sample set. An empty set yields zero statistics.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Min: values[0], Max: values[0]}

	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - s.Mean
		sqDiff += d * d
	}
	s.StdDeviation = math.Sqrt(sqDiff / float64(len(values)))

	return s
}
