// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense numeric arrays the optimizers work on.
//
// # Overview
//
// An Array is an n-dimensional, row-major array with an element type of
// float32 or float64. Every operation returns a new Array; inputs are never
// modified. Results are rounded to the element type after every operation,
// so float32 arrays behave like float32 arithmetic.
//
// # Basic Usage
//
//	import "github.com/born-ml/descent/tensor"
//
//	func main() {
//	    x := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := tensor.Full(tensor.Shape{2, 2}, 0.5, tensor.Float32)
//
//	    z := x.Mul(y).AddScalar(1)
//	    w := x.MatMul(y.Transpose2D())
//	}
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros(tensor.Shape{3, 1}, tensor.Float32) // (3, 1)
//	b := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32) // (3, 4)
//	c := a.Add(b)                                         // (3, 4)
//
// Incompatible shapes panic with a *ShapeError.
package tensor
