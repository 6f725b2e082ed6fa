package service

import (
	"math"
	"sort"
)

// summary holds descriptive statistics over a non-empty value set.
type summary struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
}

// summarize computes mean, median, min, max and population standard
// deviation. Median is the element at index floor(n/2) of the sorted
// values: for even n that is the upper-middle element, not the average
// of the two middle ones. Returns nil for an empty input.
func summarize(values []float64) *summary {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	sqSum := 0.0
	for _, v := range sorted {
		d := v - mean
		sqSum += d * d
	}

	return &summary{
		Count:  n,
		Mean:   mean,
		Median: sorted[n/2],
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: math.Sqrt(sqSum / float64(n)),
	}
}

// percentageOf guards the score/total division against a zero
// denominator, which resolves to 0 rather than NaN.
func percentageOf(earned, possible float64) float64 {
	if possible == 0 {
		return 0
	}
	return earned / possible * 100
}

// letterGrade maps a percentage to a letter via fixed thresholds.
func letterGrade(pct float64) string {
	switch {
	case pct >= 97:
		return "A+"
	case pct >= 93:
		return "A"
	case pct >= 90:
		return "A-"
	case pct >= 87:
		return "B+"
	case pct >= 83:
		return "B"
	case pct >= 80:
		return "B-"
	case pct >= 77:
		return "C+"
	case pct >= 73:
		return "C"
	case pct >= 70:
		return "C-"
	case pct >= 67:
		return "D+"
	case pct >= 63:
		return "D"
	case pct >= 60:
		return "D-"
	default:
		return "F"
	}
}
