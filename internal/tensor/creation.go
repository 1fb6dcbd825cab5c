package tensor

// Zeros creates an array filled with zeros.
//
// Example:
//
//	v := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) *Array {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return &Array{shape: shape.Clone(), dtype: dtype, data: make([]float64, shape.NumElements())}
}

// ZerosLike creates a zero-filled array with the shape and dtype of a.
func ZerosLike(a *Array) *Array {
	return Zeros(a.shape, a.dtype)
}

// Full creates an array filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14, tensor.Float64)
func Full(shape Shape, value float64, dtype DataType) *Array {
	a := Zeros(shape, dtype)
	value = dtype.Round(value)
	for i := range a.data {
		a.data[i] = value
	}
	return a
}

// Scalar creates a rank-0 array holding v.
func Scalar(v float64, dtype DataType) *Array {
	return &Array{shape: Shape{}, dtype: dtype, data: []float64{dtype.Round(v)}}
}

// FromFloat32 creates a Float32 array from a slice. The data is copied.
//
// Example:
//
//	w := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromFloat32(data []float32, shape Shape) *Array {
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	return newArray(shape, Float32, values)
}

// FromFloat64 creates a Float64 array from a slice. The data is copied.
func FromFloat64(data []float64, shape Shape) *Array {
	values := make([]float64, len(data))
	copy(values, data)
	return newArray(shape, Float64, values)
}
