// Package ode implements the adaptive integrator dark-flight's dynamics
// function is propagated with: an embedded Dormand-Prince 5(4) pair with
// PI step-size control, a per-step observer callback, and a linear
// backtrack helper for locating a terminal event precisely.
//
// The integrator is modelled on soypat/gnco's own RKN1210 integrator (see
// DESIGN.md) but exposes Init/Run/State/Steps: steps are taken inside Run
// rather than through an exported Step method. It implements the specific
// DP5(4) pair the propagator needs.
package ode

import (
	"errors"
	"math"
)

// ErrBudgetExceeded is returned by Run when the supplied wall-clock
// budget (a step count ceiling, since the integrator has no wall-clock of
// its own) is exhausted before the observer signals termination.
var ErrBudgetExceeded = errors.New("ode: step budget exceeded")

// ErrStepSizeUnderflow is returned when the adaptive step size falls below
// Parameters.MinStep without the error estimate coming under tolerance: a
// numerical failure that aborts the propagation of a single particle
// without affecting the rest of an ensemble (spec.md §7).
var ErrStepSizeUnderflow = errors.New("ode: step size underflow")

// ErrNonFinite is returned when the derivative function produces a
// non-finite value.
var ErrNonFinite = errors.New("ode: non-finite derivative")

// Derivative evaluates dy/dt at time t given state y, writing the result
// into dy. Both slices have the integrator's configured dimension.
type Derivative func(t float64, y, dy []float64)

// Command is returned by an Observer after each accepted step.
type Command int

const (
	Continue Command = iota
	Terminate
)

// Observer is invoked once per accepted step with the new (t, y) pair.
type Observer func(t float64, y []float64) Command

// Parameters configures tolerance and step-size bounds (spec.md §4.E).
type Parameters struct {
	RelTolerance float64
	AbsTolerance float64
	InitialStep  float64
	MaxStep      float64
	MinStep      float64
	// MaxSteps bounds the number of accepted steps (the step-count analogue
	// of a wall-clock budget, SPEC_FULL.md §5); zero means unbounded.
	MaxSteps int
}

// Step pairs an accepted step's time and state.
type Step struct {
	T float64
	Y []float64
}

// Integrator holds the adaptive DP5(4) state for one propagation.
type Integrator struct {
	deriv  Derivative
	params Parameters
	dim    int

	t float64
	y []float64
	h float64

	errPrevNorm float64
	steps       []Step

	// scratch buffers reused across steps to avoid per-step allocation.
	k      [7][]float64
	yStage []float64
	yNew   []float64
	errVec []float64
}

// dp54 Butcher tableau coefficients.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB  = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpBs = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// New returns an Integrator of the given state dimension.
func New(dim int, deriv Derivative, params Parameters) *Integrator {
	in := &Integrator{deriv: deriv, params: params, dim: dim}
	for i := range in.k {
		in.k[i] = make([]float64, dim)
	}
	in.yStage = make([]float64, dim)
	in.yNew = make([]float64, dim)
	in.errVec = make([]float64, dim)
	return in
}

// Init sets the initial condition and resets the recorded step history.
func (in *Integrator) Init(t0 float64, y0 []float64) {
	in.t = t0
	in.y = append(in.y[:0], y0...)
	in.h = in.params.InitialStep
	in.errPrevNorm = 1
	in.steps = append(in.steps[:0], Step{T: t0, Y: append([]float64(nil), y0...)})
}

// State returns the current (t, y) pair.
func (in *Integrator) State() (float64, []float64) { return in.t, in.y }

// Steps returns every accepted step recorded since Init, oldest first.
func (in *Integrator) Steps() []Step { return in.steps }

// Run advances the integrator, invoking observer after every accepted
// step, until the observer returns Terminate or the step budget is
// exhausted.
func (in *Integrator) Run(observer Observer) error {
	stepCount := 0
	for {
		accepted, err := in.step()
		if err != nil {
			return err
		}
		if !accepted {
			continue
		}
		stepCount++
		if observer(in.t, in.y) == Terminate {
			return nil
		}
		if in.params.MaxSteps > 0 && stepCount >= in.params.MaxSteps {
			return ErrBudgetExceeded
		}
	}
}

// step attempts one adaptive DP5(4) step, adjusting in.h via PI control.
// It returns (true, nil) if the step was accepted and applied.
func (in *Integrator) step() (bool, error) {
	for {
		h := in.h
		if h < in.params.MinStep {
			return false, ErrStepSizeUnderflow
		}
		if in.params.MaxStep > 0 && h > in.params.MaxStep {
			h = in.params.MaxStep
		}

		in.deriv(in.t, in.y, in.k[0])
		for stage := 1; stage < 7; stage++ {
			copy(in.yStage, in.y)
			for j := 0; j < stage; j++ {
				aij := dpA[stage][j]
				if aij == 0 {
					continue
				}
				for d := 0; d < in.dim; d++ {
					in.yStage[d] += h * aij * in.k[j][d]
				}
			}
			in.deriv(in.t+dpC[stage]*h, in.yStage, in.k[stage])
		}

		errNorm := 0.0
		for d := 0; d < in.dim; d++ {
			var y5, err5 float64
			for s := 0; s < 7; s++ {
				y5 += dpB[s] * in.k[s][d]
				err5 += (dpB[s] - dpBs[s]) * in.k[s][d]
			}
			yNew := in.y[d] + h*y5
			in.yNew[d] = yNew
			sc := in.params.AbsTolerance + in.params.RelTolerance*math.Max(math.Abs(in.y[d]), math.Abs(yNew))
			if sc == 0 {
				sc = in.params.AbsTolerance
			}
			e := h * err5 / sc
			if math.IsNaN(e) || math.IsInf(e, 0) {
				return false, ErrNonFinite
			}
			errNorm += e * e
		}
		errNorm = math.Sqrt(errNorm / float64(in.dim))
		if errNorm == 0 {
			errNorm = 1e-12
		}

		const order = 5.0
		const alpha = 0.7 / order
		const beta = 0.4 / order
		const safety = 0.9
		const minScale = 0.2
		const maxScale = 5.0

		factor := safety * math.Pow(1/errNorm, alpha) * math.Pow(in.errPrevNorm, beta)
		factor = math.Max(minScale, math.Min(maxScale, factor))

		if errNorm <= 1 {
			in.t += h
			copy(in.y, in.yNew)
			in.steps = append(in.steps, Step{T: in.t, Y: append([]float64(nil), in.y...)})
			in.errPrevNorm = errNorm
			in.h = h * factor
			return true, nil
		}
		in.h = h * factor
	}
}

// LerpState linearly interpolates two state vectors by frac in [0,1].
func LerpState(y0, y1 []float64, frac float64) []float64 {
	out := make([]float64, len(y0))
	for i := range out {
		out[i] = y0[i] + frac*(y1[i]-y0[i])
	}
	return out
}

// LerpScalar linearly interpolates two scalars by frac in [0,1].
func LerpScalar(a, b, frac float64) float64 {
	return a + frac*(b-a)
}
