package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Zeros(tensor.Shape{3, 1}, tensor.Float32)
//	b := tensor.Zeros(tensor.Shape{3, 5}, tensor.Float32)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (a *Array) Add(other *Array) *Array {
	return binary("add", a, other, func(dst, x, y []float64) { floats.AddTo(dst, x, y) },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (a *Array) Sub(other *Array) *Array {
	return binary("sub", a, other, func(dst, x, y []float64) { floats.SubTo(dst, x, y) },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (a *Array) Mul(other *Array) *Array {
	return binary("mul", a, other, func(dst, x, y []float64) { floats.MulTo(dst, x, y) },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (a *Array) Div(other *Array) *Array {
	return binary("div", a, other, func(dst, x, y []float64) { floats.DivTo(dst, x, y) },
		func(x, y float64) float64 { return x / y })
}

// Maximum returns the element-wise maximum with broadcasting.
func (a *Array) Maximum(other *Array) *Array {
	return binary("maximum", a, other, nil, math.Max)
}

// Minimum returns the element-wise minimum with broadcasting.
func (a *Array) Minimum(other *Array) *Array {
	return binary("minimum", a, other, nil, math.Min)
}

// AddScalar adds c to every element. c is cast to the array's dtype first.
func (a *Array) AddScalar(c float64) *Array {
	out := a.Float64s()
	floats.AddConst(a.dtype.Round(c), out)
	return newArray(a.shape, a.dtype, out)
}

// MulScalar multiplies every element by c. c is cast to the array's dtype first.
func (a *Array) MulScalar(c float64) *Array {
	out := a.Float64s()
	floats.Scale(a.dtype.Round(c), out)
	return newArray(a.shape, a.dtype, out)
}

// DivScalar divides every element by c. c is cast to the array's dtype first.
func (a *Array) DivScalar(c float64) *Array {
	c = a.dtype.Round(c)
	return a.apply(func(x float64) float64 { return x / c })
}

// MaximumScalar returns max(x, c) for every element.
func (a *Array) MaximumScalar(c float64) *Array {
	c = a.dtype.Round(c)
	return a.apply(func(x float64) float64 { return math.Max(x, c) })
}

// Neg negates every element.
func (a *Array) Neg() *Array {
	return a.MulScalar(-1)
}

// Square squares every element.
func (a *Array) Square() *Array {
	out := a.Float64s()
	floats.Mul(out, a.data)
	return newArray(a.shape, a.dtype, out)
}

// Sqrt computes the element-wise square root.
func (a *Array) Sqrt() *Array {
	return a.apply(math.Sqrt)
}

// Rsqrt computes the element-wise reciprocal square root 1/√x.
func (a *Array) Rsqrt() *Array {
	return a.apply(func(x float64) float64 { return 1 / math.Sqrt(x) })
}

// Abs computes the element-wise absolute value.
func (a *Array) Abs() *Array {
	return a.apply(math.Abs)
}

// Sign returns -1, 0 or 1 for every element according to its sign.
func (a *Array) Sign() *Array {
	return a.apply(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})
}

// apply maps fn over every element.
func (a *Array) apply(fn func(float64) float64) *Array {
	out := make([]float64, len(a.data))
	for i, v := range a.data {
		out[i] = fn(v)
	}
	return newArray(a.shape, a.dtype, out)
}

// binary combines two arrays element-wise. kernel handles the same-shape fast
// path and may be nil; fn is used for broadcasting.
func binary(op string, a, b *Array, kernel func(dst, x, y []float64), fn func(x, y float64) float64) *Array {
	dtype := promote(a.dtype, b.dtype)

	if a.shape.Equal(b.shape) {
		out := make([]float64, len(a.data))
		if kernel != nil {
			kernel(out, a.data, b.data)
		} else {
			for i := range out {
				out[i] = fn(a.data[i], b.data[i])
			}
		}
		return newArray(a.shape, dtype, out)
	}

	shape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		se := err.(*ShapeError)
		se.Op = op
		panic(se)
	}

	out := make([]float64, shape.NumElements())
	aStrides := broadcastStrides(a.shape, shape)
	bStrides := broadcastStrides(b.shape, shape)
	index := make([]int, len(shape))
	ia, ib := 0, 0

	for i := range out {
		out[i] = fn(a.data[ia], b.data[ib])

		// Advance the multi-index, carrying into higher dimensions.
		for d := len(shape) - 1; d >= 0; d-- {
			index[d]++
			ia += aStrides[d]
			ib += bStrides[d]
			if index[d] < shape[d] {
				break
			}
			ia -= aStrides[d] * shape[d]
			ib -= bStrides[d] * shape[d]
			index[d] = 0
		}
	}

	return newArray(shape, dtype, out)
}
