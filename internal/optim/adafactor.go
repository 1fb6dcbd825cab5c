package optim

import (
	"math"

	"github.com/born-ml/descent/internal/tensor"
)

// Adafactor keeps a factored estimate of the second moment for matrices and
// can derive its own step size.
//
// For parameters of rank >= 2 the second moment is stored as row and column
// averages over the last two axes, so memory grows with rows + cols instead
// of rows * cols. Vectors and scalars keep a full second moment.
//
// Per step t:
//
//	rho   = min(warmup ? 1e-6*t : 1e-2, 1/sqrt(t))   // relative step
//	        or the engine learning rate               // otherwise
//	alpha = rho * max(eps2, rms(param))               // with ScaleParameter
//	beta2 = 1 - t^decay_rate
//	u     = g² + eps1
//	row   = beta2 * row + (1 - beta2) * mean(u, -1)
//	col   = beta2 * col + (1 - beta2) * mean(u, -2)
//	u     = rsqrt(row / mean(row)) ⊗ rsqrt(col) * g
//	u     = alpha * u / max(1, rms(u) / clip_threshold)
//	param = param - u
//
// With RelativeStep the engine learning rate is ignored entirely, so
// schedulers have no effect on this rule.
//
// Reference: Shazeer & Stern, "Adafactor: Adaptive Learning Rates with
// Sublinear Memory Cost", 2018.
type Adafactor struct {
	eps1, eps2     float64
	clipThreshold  float64
	decayRate      float64
	beta1          float64
	weightDecay    float64
	scaleParameter bool
	relativeStep   bool
	warmupInit     bool
}

// AdafactorConfig holds configuration for the Adafactor optimizer.
type AdafactorConfig struct {
	LearningRate   float64    // Learning rate; required when RelativeStep is false
	Eps            [2]float64 // Regularizers for the squared gradient and the parameter scale
	ClipThreshold  float64    // Threshold on the update RMS
	DecayRate      float64    // Exponent of the second-moment decay
	Beta1          float64    // First-moment coefficient; 0 disables the first moment
	WeightDecay    float64    // Decoupled weight decay
	ScaleParameter bool       // Scale the step by the parameter RMS
	RelativeStep   bool       // Derive the step size from the step count
	WarmupInit     bool       // Start the relative step at 1e-6 and grow it linearly
}

// DefaultAdafactorConfig returns the standard Adafactor hyperparameters:
// relative steps scaled by the parameter RMS, without a first moment.
func DefaultAdafactorConfig() AdafactorConfig {
	return AdafactorConfig{
		Eps:            [2]float64{1e-30, 1e-3},
		ClipThreshold:  1.0,
		DecayRate:      -0.8,
		ScaleParameter: true,
		RelativeStep:   true,
	}
}

// NewAdafactor creates an optimizer driven by the Adafactor rule.
//
// Fields are used as given, so start from DefaultAdafactorConfig.
func NewAdafactor(cfg AdafactorConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("adafactor", "learning rate", cfg.LearningRate, "must be >= 0")
	case !cfg.RelativeStep && cfg.LearningRate == 0:
		return nil, invalidConfig("adafactor", "learning rate", cfg.LearningRate, "required when relative step is disabled")
	case cfg.Eps[0] < 0 || cfg.Eps[1] < 0:
		return nil, invalidConfig("adafactor", "epsilon", cfg.Eps, "must be >= 0")
	case cfg.ClipThreshold <= 0:
		return nil, invalidConfig("adafactor", "clip threshold", cfg.ClipThreshold, "must be > 0")
	case cfg.Beta1 < 0 || cfg.Beta1 >= 1:
		return nil, invalidConfig("adafactor", "beta1", cfg.Beta1, "must be in [0, 1)")
	}

	rule := &Adafactor{
		eps1:           cfg.Eps[0],
		eps2:           cfg.Eps[1],
		clipThreshold:  cfg.ClipThreshold,
		decayRate:      cfg.DecayRate,
		beta1:          cfg.Beta1,
		weightDecay:    cfg.WeightDecay,
		scaleParameter: cfg.ScaleParameter,
		relativeStep:   cfg.RelativeStep,
		warmupInit:     cfg.WarmupInit,
	}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "adafactor".
func (a *Adafactor) Name() string { return "adafactor" }

// InitSingle creates the step counter and the second-moment statistics,
// factored for parameters of rank >= 2.
func (a *Adafactor) InitSingle(param *tensor.Array, slot *Slot) {
	slot.InitStep()

	shape := param.Shape()
	if len(shape) >= 2 {
		rows := shape[:len(shape)-1].Clone()
		cols := append(shape[:len(shape)-2].Clone(), shape[len(shape)-1])
		slot.Init(LabelExpAvgSqRow, tensor.Zeros(rows, param.DType()))
		slot.Init(LabelExpAvgSqCol, tensor.Zeros(cols, param.DType()))
	} else {
		slot.Init(LabelExpAvgSq, tensor.ZerosLike(param))
	}

	if a.beta1 > 0 {
		slot.Init(LabelExpAvg, tensor.ZerosLike(param))
	}
}

// ApplySingle performs one Adafactor step.
func (a *Adafactor) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	step := slot.Step() + 1
	slot.SetStep(step)

	alpha := a.stepSize(float64(step), rms(param), grad.DType().Round(lr))
	beta2 := 1 - math.Pow(float64(step), a.decayRate)

	update := grad.Square().AddScalar(a.eps1)
	if slot.Has(LabelExpAvgSqRow) {
		row := slot.Get(LabelExpAvgSqRow).MulScalar(beta2).Add(update.MeanAxis(-1, false).MulScalar(1 - beta2))
		col := slot.Get(LabelExpAvgSqCol).MulScalar(beta2).Add(update.MeanAxis(-2, false).MulScalar(1 - beta2))
		slot.Set(LabelExpAvgSqRow, row)
		slot.Set(LabelExpAvgSqCol, col)
		update = approxSqGrad(row, col).Mul(grad)
	} else {
		v := slot.Get(LabelExpAvgSq).MulScalar(beta2).Add(update.MulScalar(1 - beta2))
		slot.Set(LabelExpAvgSq, v)
		update = v.Rsqrt().Mul(grad)
	}

	update = update.DivScalar(math.Max(1, rms(update)/a.clipThreshold))
	update = update.MulScalar(alpha)

	if a.beta1 > 0 {
		avg := slot.Get(LabelExpAvg).MulScalar(a.beta1).Add(update.MulScalar(1 - a.beta1))
		slot.Set(LabelExpAvg, avg)
		update = avg
	}

	if a.weightDecay != 0 {
		param = param.Add(param.MulScalar(-a.weightDecay * alpha))
	}
	return param.Sub(update)
}

// stepSize returns the absolute step for step t.
func (a *Adafactor) stepSize(t, paramRMS, lr float64) float64 {
	rho := lr
	if a.relativeStep {
		minStep := 1e-2
		if a.warmupInit {
			minStep = 1e-6 * t
		}
		rho = math.Min(minStep, 1/math.Sqrt(t))
	}
	scale := 1.0
	if a.scaleParameter {
		scale = math.Max(a.eps2, paramRMS)
	}
	return scale * rho
}

// approxSqGrad rebuilds the inverse root of the second moment from its row and
// column statistics. The outer product runs over the last two axes, leading
// axes are batch axes.
func approxSqGrad(row, col *tensor.Array) *tensor.Array {
	r := row.Div(row.MeanAxis(-1, true)).Rsqrt()
	c := col.Rsqrt()
	return r.ExpandDims(-1).MatMul(c.ExpandDims(-2))
}

func rms(a *tensor.Array) float64 {
	return math.Sqrt(a.Square().Mean())
}
