package nn

import (
	"fmt"

	"github.com/born-ml/descent/internal/tensor"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values. Panics if the shapes differ.
func MSELoss(predictions, targets *tensor.Array) float64 {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("MSELoss: predictions shape %v, targets shape %v", predictions.Shape(), targets.Shape()))
	}
	diff := predictions.Sub(targets)
	return diff.Square().Mean()
}

// MSELossGrad returns the gradient of MSELoss with respect to predictions:
//
//	2 * (predictions - targets) / N
func MSELossGrad(predictions, targets *tensor.Array) *tensor.Array {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("MSELossGrad: predictions shape %v, targets shape %v", predictions.Shape(), targets.Shape()))
	}
	n := float64(predictions.NumElements())
	return predictions.Sub(targets).MulScalar(2 / n)
}
