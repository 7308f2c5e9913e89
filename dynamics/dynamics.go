// Package dynamics implements the dark-flight dynamics function
// (component D): the derivative assembly combining gravity, drag, optional
// lift and mass loss, plus the per-step diagnostic record and the
// absolute-magnitude by-product.
package dynamics

import (
	"math"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/drag"
)

// State is the meteoroid state vector: position and velocity in the ECI
// frame plus the four scalar properties the ablation and drag laws need.
type State struct {
	Pos             md3.Vec
	Vel             md3.Vec
	MassKG          float64
	BulkDensityKGM3 float64
	ShapeA          float64
	MassLossCoeff   float64
}

// Sample pairs a State with its Julian-day timestamp and the drag
// diagnostics computed at that step, so the result assembler never
// recomputes drag to produce its diagnostic columns.
type Sample struct {
	TimeJD float64
	State  State
	Cd, Re, Kn, Ma float64
}

// stateDim is the dimension of the vector handed to the ODE integrator:
// 3 position + 3 velocity + mass + bulk density + shape factor + c_ml.
const stateDim = 10

func (s State) toVector() []float64 {
	return []float64{
		s.Pos.X, s.Pos.Y, s.Pos.Z,
		s.Vel.X, s.Vel.Y, s.Vel.Z,
		s.MassKG, s.BulkDensityKGM3, s.ShapeA, s.MassLossCoeff,
	}
}

func stateFromVector(v []float64) State {
	return State{
		Pos:             md3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Vel:             md3.Vec{X: v[3], Y: v[4], Z: v[5]},
		MassKG:          v[6],
		BulkDensityKGM3: v[7],
		ShapeA:          v[8],
		MassLossCoeff:   v[9],
	}
}

// Derivative assembles dstate/dt at simulation time t (seconds since
// t0JD), given the current state, the atmosphere sampler, the epoch of
// t=0, and the lift coefficient (zero disables the lift term entirely,
// spec.md §4.D). It also returns the drag diagnostics evaluated at this
// instant, since the result assembler wants them without recomputation.
func Derivative(world *darkflight.World, atm atmosphere.Sampler, t, t0JD, cLift float64, s State) (dstate State, cd, re, kn, ma float64) {
	posECI := darkflight.ECI{Vec: s.Pos}
	aGravity := world.GravityVector(s.Pos)

	tJD := t0JD + t/86400
	sample := atm.Sample(world, posECI, tJD)

	vRel := md3.Sub(s.Vel, sample.WindECI.Vec)
	v := md3.Norm(vRel)

	cd, re, kn, ma = drag.Coefficient(v, sample.TemperatureK, sample.DensityKGM3, s.ShapeA)

	denom := 2 * math.Cbrt(s.MassKG) * math.Pow(s.BulkDensityKGM3, 2.0/3)
	var aDrag md3.Vec
	if denom != 0 {
		aDrag = md3.Scale(-cd*s.ShapeA*sample.DensityKGM3*v/denom, vRel)
	}

	// a_lift = cl*A*rho_a*v^2*n_lift / (2*m^(1/3)*rho_bulk^(2/3)), with
	// n_lift = (a_gravity x v_rel) / ||a_gravity x v_rel|| (spec.md §4.D,
	// DarkFlight_main.py's EarthDynamics).
	var aLift md3.Vec
	if cLift > 0 && denom != 0 {
		cross := md3.Cross(aGravity, vRel)
		if normCross := md3.Norm(cross); normCross > 0 {
			nLift := md3.Scale(1/normCross, cross)
			aLift = md3.Scale(cLift*s.ShapeA*sample.DensityKGM3*v*v/denom, nLift)
		}
	}

	var dmdt float64
	if s.BulkDensityKGM3 != 0 {
		dmdt = -s.MassLossCoeff * s.ShapeA * sample.DensityKGM3 * v * v * v * math.Pow(s.MassKG, 2.0/3) / (2 * math.Pow(s.BulkDensityKGM3, 2.0/3))
	}

	dstate = State{
		Pos:    s.Vel,
		Vel:    md3.Add(md3.Add(aGravity, aDrag), aLift),
		MassKG: dmdt,
	}
	return dstate, cd, re, kn, ma
}

// AbsoluteMagnitude computes the incidental photometric by-product
// `dynamics.AbsoluteMagnitude` (SPEC_FULL.md §4.G supplement), grounded on
// the original `EarthDynamics`'s `return_abs_mag` branch:
// lum = -tau*(v^2/2 + Cd/c_ml)*dm/dt*1e7; M_abs = -2.5*log10(lum/1.5e10).
// tau is the luminous efficiency factor (a few percent, typically).
func AbsoluteMagnitude(tau, v, cd, massLossCoeff, dmdt float64) float64 {
	if massLossCoeff == 0 || dmdt >= 0 {
		return math.Inf(1)
	}
	lum := -tau * (v*v/2 + cd/massLossCoeff) * dmdt * 1e7
	if lum <= 0 {
		return math.Inf(1)
	}
	return -2.5 * math.Log10(lum/1.5e10)
}
