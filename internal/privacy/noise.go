package privacy

import (
	"errors"
	"math"
	"math/rand"
)

// ErrInvalidNoiseLevel is returned for a negative or non-finite noise level.
var ErrInvalidNoiseLevel = errors.New("noise level must be a non-negative finite number")

// AddNoise perturbs values multiplicatively: v * (1 + n), n ~ N(0, level * stddev(values)).
// stddev is the sample standard deviation (n-1 denominator).
// Returns an unchanged copy when the effective noise stddev is 0
// (len < 2, constant input, or level 0). rng may be nil for a fixed seed of 0.
func AddNoise(values []float64, level float64, rng *rand.Rand) ([]float64, error) {
	if level < 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return nil, ErrInvalidNoiseLevel
	}

	out := make([]float64, len(values))
	copy(out, values)

	sigma := level * sampleStddev(values)
	if sigma == 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return out, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	for i, v := range out {
		out[i] = v * (1 + rng.NormFloat64()*sigma)
	}
	return out, nil
}

// sampleStddev calculates sample standard deviation (n-1 denominator).
// Constant input returns exactly 0 regardless of floating point rounding in the mean.
func sampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 || isConstant(values) {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
