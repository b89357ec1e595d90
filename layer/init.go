package layer

import "math/rand"

// Uniform draws n values uniformly from [-k, k].
func Uniform(rng *rand.Rand, k float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (2*rng.Float64() - 1) * k
	}
	return out
}

// Normal draws n values from a zero-mean gaussian with the given stddev.
func Normal(rng *rand.Rand, std float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * std
	}
	return out
}

// Zeros returns n zero values.
func Zeros(n int) []float64 {
	return make([]float64, n)
}

// Ones returns n one values.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
