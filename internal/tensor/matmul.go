package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatMul performs matrix multiplication.
//
// Requirements:
//   - For 2D arrays: (M, K) @ (K, N) → (M, N)
//   - For batched arrays: (..., M, K) @ (..., K, N) → (..., M, N), where the
//     leading batch dimensions broadcast against each other.
//
// Example:
//
//	r := tensor.Zeros(tensor.Shape{4, 1}, tensor.Float32)
//	c := tensor.Zeros(tensor.Shape{1, 3}, tensor.Float32)
//	outer := r.MatMul(c) // Shape: [4, 3]
func (a *Array) MatMul(other *Array) *Array {
	if a.Rank() < 2 || other.Rank() < 2 {
		panic(&ShapeError{Op: "matmul", Shapes: []Shape{a.shape, other.shape}, Details: "operands must be at least 2D"})
	}

	m, k := a.shape[a.Rank()-2], a.shape[a.Rank()-1]
	k2, n := other.shape[other.Rank()-2], other.shape[other.Rank()-1]
	if k != k2 {
		panic(&ShapeError{
			Op:      "matmul",
			Shapes:  []Shape{a.shape, other.shape},
			Details: fmt.Sprintf("inner dimensions %d vs %d", k, k2),
		})
	}

	aBatch := a.shape[:a.Rank()-2]
	bBatch := other.shape[:other.Rank()-2]
	batch, _, err := BroadcastShapes(aBatch, bBatch)
	if err != nil {
		se := err.(*ShapeError)
		se.Op = "matmul"
		panic(se)
	}

	aStrides := broadcastStrides(aBatch, batch)
	bStrides := broadcastStrides(bBatch, batch)
	batchStrides := batch.ComputeStrides()
	count := batch.NumElements()

	out := make([]float64, count*m*n)
	if m == 0 || n == 0 || k == 0 {
		// gonum rejects empty matrices; the product is all zeros.
		count = 0
	}
	for bi := 0; bi < count; bi++ {
		aOff, bOff := 0, 0
		rem := bi
		for d := range batch {
			idx := rem / batchStrides[d]
			rem %= batchStrides[d]
			aOff += idx * aStrides[d]
			bOff += idx * bStrides[d]
		}

		lhs := mat.NewDense(m, k, a.data[aOff*m*k:(aOff+1)*m*k])
		rhs := mat.NewDense(k, n, other.data[bOff*k*n:(bOff+1)*k*n])
		dst := mat.NewDense(m, n, out[bi*m*n:(bi+1)*m*n])
		dst.Mul(lhs, rhs)
	}

	shape := make(Shape, 0, len(batch)+2)
	shape = append(shape, batch...)
	shape = append(shape, m, n)
	return newArray(shape, promote(a.dtype, other.dtype), out)
}
