// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/descent/internal/tensor"
)

// Array is a dense n-dimensional array.
type Array = tensor.Array

// Shape represents the dimensions of an array.
type Shape = tensor.Shape

// DataType represents the element type of an array.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// ShapeError reports arrays whose shapes cannot be combined by an operation.
type ShapeError = tensor.ShapeError

// Zeros creates an array filled with zeros.
func Zeros(shape Shape, dtype DataType) *Array {
	return tensor.Zeros(shape, dtype)
}

// ZerosLike creates a zero array with the shape and dtype of a.
func ZerosLike(a *Array) *Array {
	return tensor.ZerosLike(a)
}

// Full creates an array filled with value.
func Full(shape Shape, value float64, dtype DataType) *Array {
	return tensor.Full(shape, value, dtype)
}

// Scalar creates a rank-0 array.
func Scalar(v float64, dtype DataType) *Array {
	return tensor.Scalar(v, dtype)
}

// FromFloat32 creates a float32 array from data. The data is copied.
//
// Example:
//
//	x := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromFloat32(data []float32, shape Shape) *Array {
	return tensor.FromFloat32(data, shape)
}

// FromFloat64 creates a float64 array from data. The data is copied.
func FromFloat64(data []float64, shape Shape) *Array {
	return tensor.FromFloat64(data, shape)
}

// BroadcastShapes computes the shape two arrays broadcast to.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
