package utils

import (
	"math"
	"sort"
	"time"
)

// ParseDuration safely parses a duration string like "5m".
func ParseDuration(d string) time.Duration {
	if d == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return 5 * time.Minute
	}
	return duration
}

// Median returns the upper median of values, 0 for an empty slice.
// The input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// Round3 rounds to three decimal places, the precision used for every
// report column.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
