package layer

import (
	"math"
	"math/rand"
	"testing"
)

func TestUniformBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const k = 0.25
	for _, v := range Uniform(rng, k, 1000) {
		if v < -k || v >= k {
			t.Fatalf("value %v outside [-%v, %v)", v, k, k)
		}
	}
}

func TestUniformDeterminism(t *testing.T) {
	a := Uniform(rand.New(rand.NewSource(9)), 1, 64)
	b := Uniform(rand.New(rand.NewSource(9)), 1, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("element %d differs for equal seeds: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNormalSpread(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const std = 0.02
	vals := Normal(rng, std, 4096)
	var sum, sq float64
	for _, v := range vals {
		sum += v
		sq += v * v
	}
	mean := sum / float64(len(vals))
	if math.Abs(mean) > 3*std/math.Sqrt(float64(len(vals)))*4 {
		t.Errorf("sample mean %v too far from 0", mean)
	}
	got := math.Sqrt(sq/float64(len(vals)) - mean*mean)
	if got < std/2 || got > std*2 {
		t.Errorf("sample std %v, want near %v", got, std)
	}
}

func TestZerosOnes(t *testing.T) {
	for i, v := range Zeros(7) {
		if v != 0 {
			t.Fatalf("Zeros element %d is %v", i, v)
		}
	}
	for i, v := range Ones(7) {
		if v != 1 {
			t.Fatalf("Ones element %d is %v", i, v)
		}
	}
}
