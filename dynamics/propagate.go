package dynamics

import (
	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/internal/ode"
	"github.com/dfn-toolkit/darkflight/terrain"
)

// TerminationReason records why a propagation stopped. A termination is
// never surfaced as a Go error (spec.md §7: "propagation-degenerate... not
// an error"); it is recorded on the final sample instead.
type TerminationReason int

const (
	TerminationImpact TerminationReason = iota
	TerminationAblated
	TerminationNegativeMass
	TerminationBudgetExceeded
)

func (r TerminationReason) String() string {
	switch r {
	case TerminationImpact:
		return "impact"
	case TerminationAblated:
		return "ablated"
	case TerminationNegativeMass:
		return "negative-mass"
	case TerminationBudgetExceeded:
		return "budget-exceeded"
	default:
		return "unknown"
	}
}

// dustMassKG is the ablation floor below which a particle terminates as
// "dust" (spec.md §4.E).
const dustMassKG = 1e-3

// Propagate integrates a state forward from t0JD under gravity, drag,
// optional lift, and mass loss until a terminal event fires, following
// spec.md §4.E's integrator configuration and backtrack rule. When
// fullTrajectory is false, only the terminal (backtracked) sample is
// returned, matching spec.md §4.H's "multi-particle runs emit only the
// impact sample per particle".
func Propagate(world *darkflight.World, atm atmosphere.Sampler, ground terrain.Source, initial State, t0JD, cLift float64, fullTrajectory bool) ([]Sample, TerminationReason, error) {
	params := ode.Parameters{
		RelTolerance: 1e-4,
		AbsTolerance: 1e-6,
		InitialStep:  0.1,
		MaxStep:      3,
		MinStep:      1e-9,
	}
	if cLift > 0 {
		params.AbsTolerance = 1e-6
		params.InitialStep = 1e-6
		params.MaxStep = 5
	}

	deriv := func(t float64, y, dy []float64) {
		s := stateFromVector(y)
		ds, _, _, _, _ := Derivative(world, atm, t, t0JD, cLift, s)
		copy(dy, ds.toVector())
	}

	integ := ode.New(stateDim, deriv, params)
	integ.Init(0, initial.toVector())

	var reason TerminationReason
	err := integ.Run(func(t float64, y []float64) ode.Command {
		s := stateFromVector(y)
		epochSec := (t0JD-2451545.0)*86400 + t
		posECEF := world.ECI2ECEFPos(darkflight.ECI{Vec: s.Pos}, epochSec)
		llh := world.ECEF2LLH(posECEF)
		groundHeight, _ := ground.HeightAboveSeaLevel(llh.LatRad, llh.LonRad)
		rEnd := world.EarthRadius(llh.LatRad) + groundHeight

		switch {
		case md3.Norm(s.Pos) < rEnd:
			reason = TerminationImpact
			return ode.Terminate
		case s.MassKG < 0:
			reason = TerminationNegativeMass
			return ode.Terminate
		case s.MassKG < dustMassKG:
			reason = TerminationAblated
			return ode.Terminate
		}
		return ode.Continue
	})
	if err == ode.ErrBudgetExceeded {
		reason = TerminationBudgetExceeded
	} else if err != nil {
		return nil, reason, err
	}

	steps := integ.Steps()
	finalT, finalY := backtrackToSurface(world, ground, t0JD, steps)

	if !fullTrajectory {
		s := stateFromVector(finalY)
		ds, cd, re, kn, ma := Derivative(world, atm, finalT, t0JD, cLift, s)
		_ = ds
		return []Sample{{TimeJD: t0JD + finalT/86400, State: s, Cd: cd, Re: re, Kn: kn, Ma: ma}}, reason, nil
	}

	samples := make([]Sample, 0, len(steps))
	for i, step := range steps {
		t, y := step.T, step.Y
		if i == len(steps)-1 {
			t, y = finalT, finalY
		}
		s := stateFromVector(y)
		_, cd, re, kn, ma := Derivative(world, atm, t, t0JD, cLift, s)
		samples = append(samples, Sample{TimeJD: t0JD + t/86400, State: s, Cd: cd, Re: re, Kn: kn, Ma: ma})
	}
	return samples, reason, nil
}

// backtrackToSurface implements spec.md §4.E's post-hoc linear backtrack:
// given the last two accepted steps, interpolate position/velocity/mass
// and time by the fraction that lands the position radius exactly on the
// modelled ground surface at the final point's latitude/longitude.
func backtrackToSurface(world *darkflight.World, ground terrain.Source, t0JD float64, steps []ode.Step) (float64, []float64) {
	n := len(steps)
	if n < 2 {
		return steps[n-1].T, steps[n-1].Y
	}
	prev, last := steps[n-2], steps[n-1]

	lastState := stateFromVector(last.Y)
	epochSec := (t0JD-2451545.0)*86400 + last.T
	posECEF := world.ECI2ECEFPos(darkflight.ECI{Vec: lastState.Pos}, epochSec)
	llh := world.ECEF2LLH(posECEF)
	groundHeight, _ := ground.HeightAboveSeaLevel(llh.LatRad, llh.LonRad)
	rEnd := world.EarthRadius(llh.LatRad) + groundHeight

	rPrev := md3.Norm(stateFromVector(prev.Y).Pos)
	rLast := md3.Norm(lastState.Pos)
	if rPrev == rLast {
		return last.T, last.Y
	}
	frac := (rPrev - rEnd) / (rPrev - rLast)
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	y := ode.LerpState(prev.Y, last.Y, frac)
	t := ode.LerpScalar(prev.T, last.T, frac)
	return t, y
}
