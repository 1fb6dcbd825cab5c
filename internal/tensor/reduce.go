package tensor

import (
	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of all elements.
func (a *Array) Sum() float64 {
	return a.dtype.Round(floats.Sum(a.data))
}

// Mean returns the mean of all elements.
func (a *Array) Mean() float64 {
	return a.dtype.Round(floats.Sum(a.data) / float64(len(a.data)))
}

// MeanAxis computes the mean along one axis.
//
// Negative axes count from the end. With keepDims the reduced axis is kept
// with size 1, otherwise it is removed.
//
// Example:
//
//	x := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	x.MeanAxis(-1, false) // [2, 5], shape [2]
//	x.MeanAxis(0, true)   // [[2.5, 3.5, 4.5]], shape [1, 3]
func (a *Array) MeanAxis(axis int, keepDims bool) *Array {
	axis, err := a.shape.Axis(axis)
	if err != nil {
		panic(&ShapeError{Op: "mean", Shapes: []Shape{a.shape}, Details: err.Error()})
	}

	outer := Shape(a.shape[:axis]).NumElements()
	n := a.shape[axis]
	inner := Shape(a.shape[axis+1:]).NumElements()

	out := make([]float64, outer*inner)
	lane := make([]float64, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			for k := 0; k < n; k++ {
				lane[k] = a.data[base+k*inner]
			}
			out[o*inner+i] = floats.Sum(lane) / float64(n)
		}
	}

	shape := make(Shape, 0, len(a.shape))
	shape = append(shape, a.shape[:axis]...)
	if keepDims {
		shape = append(shape, 1)
	}
	shape = append(shape, a.shape[axis+1:]...)
	return newArray(shape, a.dtype, out)
}
