// Package tensor provides the dense numeric array consumed by the optimizers.
package tensor

// DataType represents the element type of an Array.
//
// Storage is always float64; the data type decides the precision values are
// rounded to after every operation.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Round casts v into the precision of the data type.
//
// Optimizers use it to cast scalar hyperparameters such as the learning rate
// into the element type of the gradient they are applied to.
func (dt DataType) Round(v float64) float64 {
	if dt == Float32 {
		return float64(float32(v))
	}
	return v
}

// promote returns the wider of two data types.
func promote(a, b DataType) DataType {
	if a == Float64 || b == Float64 {
		return Float64
	}
	return Float32
}
