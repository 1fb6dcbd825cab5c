package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/descent/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
// rng makes the result reproducible; pass the same seed to get the same
// weights.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Array {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := make([]float32, shape.NumElements())
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return tensor.FromFloat32(data, shape)
}

// Zeros creates a float32 array filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Array {
	return tensor.Zeros(shape, tensor.Float32)
}
