package tensor

import (
	"fmt"
	"strings"
)

// Array is a dense, row-major numeric array.
//
// Arrays are immutable by convention: every operation returns a new Array and
// never writes into its operands. Optimizer state relies on this to replace
// whole tensors instead of mutating them, so an Array may be shared freely
// between parameter trees, state snapshots and engines.
//
// Values are stored as float64 and rounded to the precision of the array's
// DataType after each operation, so Float32 arrays behave like float32
// arithmetic with float64 intermediates.
type Array struct {
	shape Shape
	dtype DataType
	data  []float64
}

// newArray wraps data without copying. Callers hand over ownership of data.
func newArray(shape Shape, dtype DataType, data []float64) *Array {
	if len(data) != shape.NumElements() {
		panic(&ShapeError{
			Op:      "new",
			Shapes:  []Shape{shape},
			Details: fmt.Sprintf("%d values for %d elements", len(data), shape.NumElements()),
		})
	}
	a := &Array{shape: shape.Clone(), dtype: dtype, data: data}
	a.round()
	return a
}

// round casts every element into the array's precision.
func (a *Array) round() {
	if a.dtype != Float32 {
		return
	}
	for i, v := range a.data {
		a.data[i] = float64(float32(v))
	}
}

// Shape returns the array's shape. The result must not be modified.
func (a *Array) Shape() Shape {
	return a.shape
}

// DType returns the array's element type.
func (a *Array) DType() DataType {
	return a.dtype
}

// Rank returns the number of dimensions (0 for scalars).
func (a *Array) Rank() int {
	return len(a.shape)
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int {
	return len(a.data)
}

// ByteSize returns the memory the array would occupy in its element type.
func (a *Array) ByteSize() int {
	return a.NumElements() * a.dtype.Size()
}

// Float64s returns a copy of the elements in row-major order.
func (a *Array) Float64s() []float64 {
	out := make([]float64, len(a.data))
	copy(out, a.data)
	return out
}

// Float32s returns a copy of the elements converted to float32.
func (a *Array) Float32s() []float32 {
	out := make([]float32, len(a.data))
	for i, v := range a.data {
		out[i] = float32(v)
	}
	return out
}

// At returns the element at the given row-major flat index.
func (a *Array) At(i int) float64 {
	return a.data[i]
}

// Item returns the value of a single-element array.
// Panics if the array holds more than one element.
func (a *Array) Item() float64 {
	if len(a.data) != 1 {
		panic(&ShapeError{Op: "item", Shapes: []Shape{a.shape}, Details: "array must have exactly one element"})
	}
	return a.data[0]
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	return &Array{shape: a.shape.Clone(), dtype: a.dtype, data: a.Float64s()}
}

// AsType returns the array cast to dtype. Returns a itself if no cast is needed.
func (a *Array) AsType(dtype DataType) *Array {
	if a.dtype == dtype {
		return a
	}
	return newArray(a.shape, dtype, a.Float64s())
}

// Equal reports whether two arrays have the same dtype, shape and
// bit-identical values.
func (a *Array) Equal(other *Array) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil || a.dtype != other.dtype || !a.shape.Equal(other.shape) {
		return false
	}
	for i, v := range a.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// String returns a compact description, e.g. "float32[2 3]{...}".
func (a *Array) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%v", a.dtype, []int(a.shape))
	if len(a.data) <= 8 {
		fmt.Fprintf(&sb, "%v", a.data)
	}
	return sb.String()
}
