package verify

import (
	"math"

	"gorgonia.org/tensor"
)

// withinTolerance reports whether every element pair satisfies
// |a-b| <= tol + tol*|b|, and the largest absolute deviation seen.
func withinTolerance(a, b []float64, tol float64) (bool, float64) {
	within := true
	var max float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > max {
			max = d
		}
		if d > tol+tol*math.Abs(b[i]) {
			within = false
		}
	}
	return within, max
}

// tensorsClose compares two output tensors elementwise with the same
// tolerance semantics.
func tensorsClose(a, b tensor.Tensor, tol float64) (bool, float64) {
	return withinTolerance(a.Data().([]float64), b.Data().([]float64), tol)
}
