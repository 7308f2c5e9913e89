package ode

import (
	"math"
	"testing"
)

// TestFreeFallTiming integrates a 1-D free-fall (constant gravity, no drag),
// locates the impact by linearly backtracking the final step to y=0 (the
// observer only sees step ends), and checks that time against the analytic
// solution.
func TestFreeFallTiming(t *testing.T) {
	const g = 9.8
	const h0 = 100.0
	deriv := func(t float64, y, dy []float64) {
		dy[0] = y[1]
		dy[1] = -g
	}
	in := New(2, deriv, Parameters{
		RelTolerance: 1e-6,
		AbsTolerance: 1e-9,
		InitialStep:  0.01,
		MaxStep:      1,
		MinStep:      1e-9,
	})
	in.Init(0, []float64{h0, 0})

	err := in.Run(func(tNow float64, y []float64) Command {
		if y[0] <= 0 {
			return Terminate
		}
		return Continue
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	steps := in.Steps()
	prev, last := steps[len(steps)-2], steps[len(steps)-1]
	frac := prev.Y[0] / (prev.Y[0] - last.Y[0])
	impactT := LerpScalar(prev.T, last.T, frac)
	want := math.Sqrt(2 * h0 / g)
	if math.Abs(impactT-want) > 0.05 {
		t.Errorf("impact time = %v, want close to %v", impactT, want)
	}
}

// TestHarmonicOscillatorEnergyConservation checks the integrator preserves
// energy on a conservative system over many periods, at tight tolerance.
func TestHarmonicOscillatorEnergyConservation(t *testing.T) {
	deriv := func(t float64, y, dy []float64) {
		dy[0] = y[1]
		dy[1] = -y[0]
	}
	in := New(2, deriv, Parameters{
		RelTolerance: 1e-10,
		AbsTolerance: 1e-12,
		InitialStep:  0.01,
		MaxStep:      0.5,
		MinStep:      1e-12,
		MaxSteps:     100000,
	})
	in.Init(0, []float64{1, 0})
	energy0 := 0.5 * (1*1 + 0*0)

	err := in.Run(func(tNow float64, y []float64) Command {
		if tNow > 20*math.Pi {
			return Terminate
		}
		return Continue
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	_, y := in.State()
	energy1 := 0.5 * (y[0]*y[0] + y[1]*y[1])
	if math.Abs(energy1-energy0) > 1e-6 {
		t.Errorf("energy drifted: %v -> %v", energy0, energy1)
	}
}

func TestLerpState(t *testing.T) {
	y0 := []float64{0, 10}
	y1 := []float64{10, 0}
	mid := LerpState(y0, y1, 0.5)
	if mid[0] != 5 || mid[1] != 5 {
		t.Errorf("LerpState midpoint = %v, want [5 5]", mid)
	}
}
