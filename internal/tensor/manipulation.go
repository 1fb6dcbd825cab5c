package tensor

import "fmt"

// Reshape returns an array with the same data and a new shape.
// The new shape must have the same number of elements.
func (a *Array) Reshape(shape ...int) *Array {
	newShape := Shape(shape)
	if newShape.NumElements() != a.NumElements() {
		panic(&ShapeError{
			Op:      "reshape",
			Shapes:  []Shape{a.shape, newShape},
			Details: fmt.Sprintf("%d elements vs %d", a.NumElements(), newShape.NumElements()),
		})
	}
	return &Array{shape: newShape.Clone(), dtype: a.dtype, data: a.Float64s()}
}

// ExpandDims inserts a dimension of size 1 at axis.
//
// Negative axes count from the end of the resulting shape, so -1 appends a
// trailing dimension.
//
// Example:
//
//	r := tensor.Zeros(tensor.Shape{4}, tensor.Float32)
//	r.ExpandDims(-1) // Shape: [4, 1]
//	r.ExpandDims(0)  // Shape: [1, 4]
func (a *Array) ExpandDims(axis int) *Array {
	rank := len(a.shape) + 1
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		panic(&ShapeError{Op: "expand_dims", Shapes: []Shape{a.shape}, Details: fmt.Sprintf("axis %d out of range", axis)})
	}

	shape := make(Shape, 0, rank)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.shape[axis:]...)
	return &Array{shape: shape, dtype: a.dtype, data: a.Float64s()}
}

// Transpose2D swaps the rows and columns of a matrix.
// Panics if the array is not 2D.
func (a *Array) Transpose2D() *Array {
	if len(a.shape) != 2 {
		panic(&ShapeError{Op: "transpose", Shapes: []Shape{a.shape}, Details: "only works for 2D arrays"})
	}
	rows, cols := a.shape[0], a.shape[1]
	out := make([]float64, len(a.data))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = a.data[i*cols+j]
		}
	}
	return &Array{shape: Shape{cols, rows}, dtype: a.dtype, data: out}
}
