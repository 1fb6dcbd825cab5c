package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArray_Unary(t *testing.T) {
	x := FromFloat64([]float64{-4, 0, 0.25, 9}, Shape{4})

	tests := []struct {
		name string
		got  *Array
		want []float64
	}{
		{"neg", x.Neg(), []float64{4, 0, -0.25, -9}},
		{"square", x.Square(), []float64{16, 0, 0.0625, 81}},
		{"abs", x.Abs(), []float64{4, 0, 0.25, 9}},
		{"sign", x.Sign(), []float64{-1, 0, 1, 1}},
		{"maximum scalar", x.MaximumScalar(0.5), []float64{0.5, 0.5, 0.5, 9}},
		{"div scalar", x.DivScalar(4), []float64{-1, 0, 0.0625, 2.25}},
		{"mul scalar", x.MulScalar(-2), []float64{8, 0, -0.5, -18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Shape{4}, tt.got.Shape())
			assert.Equal(t, tt.want, tt.got.Float64s())
		})
	}
}

func TestArray_SqrtRsqrt(t *testing.T) {
	x := FromFloat64([]float64{0.25, 4, 0}, Shape{3})

	assert.Equal(t, []float64{0.5, 2, 0}, x.Sqrt().Float64s())

	r := x.Rsqrt().Float64s()
	assert.Equal(t, []float64{2, 0.5}, r[:2])
	assert.True(t, math.IsInf(r[2], 1))
}

func TestArray_MaximumMinimum(t *testing.T) {
	a := FromFloat32([]float32{1, 5, -2}, Shape{3})
	b := FromFloat32([]float32{3}, Shape{1})

	assert.Equal(t, []float32{3, 5, 3}, a.Maximum(b).Float32s())
	assert.Equal(t, []float32{1, 3, -2}, a.Minimum(b).Float32s())
}

func TestArray_BroadcastPanics(t *testing.T) {
	a := Zeros(Shape{3, 4}, Float32)
	b := Zeros(Shape{3, 5}, Float32)

	defer func() {
		r := recover()
		se, ok := r.(*ShapeError)
		if assert.True(t, ok, "expected *ShapeError, got %T", r) {
			assert.Equal(t, "add", se.Op)
		}
	}()
	a.Add(b)
}

func TestArray_OpsKeepInputs(t *testing.T) {
	a := FromFloat32([]float32{1, 2}, Shape{2})
	before := a.Clone()

	_ = a.Add(a).MulScalar(3).Square().Sign()
	assert.True(t, a.Equal(before))
}
