// Package score holds the numeric primitives shared by the verification
// and matching engines. Everything here is pure.
package score

import (
	"math"

	"github.com/ppiankov/aidmatch/internal/model"
)

// Min and Max bound every confidence, factor and match score
const (
	Min = 0
	Max = 100
)

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero
func Round(v float64) int {
	return int(math.Round(v))
}

// Bound clamps v to the 0..100 score range and rounds it. Clamping happens
// before the int conversion so huge or infinite inputs cannot overflow.
func Bound(v float64) int {
	if math.IsNaN(v) {
		return Min
	}
	return Round(math.Max(Min, math.Min(v, Max)))
}

// DeviationPct returns the signed percentage by which value departs from
// avg: (value - avg) / avg * 100. avg must be positive.
func DeviationPct(value, avg float64) float64 {
	return (value - avg) / avg * 100
}

// Part is one term of a weighted sum
type Part struct {
	Name   string
	Value  float64
	Weight float64
}

// WeightedSum returns Σ value*weight
func WeightedSum(parts ...Part) float64 {
	total := 0.0
	for _, p := range parts {
		total += p.Value * p.Weight
	}
	return total
}

// Label maps a match score to its presentation band
func Label(matchScore int) model.QualityLabel {
	switch {
	case matchScore >= 80:
		return model.QualityExcellent
	case matchScore >= 70:
		return model.QualityVeryGood
	case matchScore >= 60:
		return model.QualityGood
	default:
		return model.QualityFair
	}
}
