package darkflight

import (
	"math"

	"github.com/soypat/geometry/md3"
)

// TerminalState is the observed state at the end of a meteor's luminous
// flight: the boundary condition the dark-flight propagator starts from
// (spec.md §3). Position and velocity are given in whichever frame the
// ingest layer (an external collaborator, not this package) parsed from
// the source file; ToInitialCondition below is what normalizes them into
// the ECI state the dynamics function integrates.
type TerminalState struct {
	// EpochJD is the Julian date of the terminal point.
	EpochJD float64
	// Pos is the terminal geodetic position.
	Pos LLH
	// VelENU is the terminal velocity in local east-north-up components
	// [m/s]. A meteor descending on a typical trajectory has a strongly
	// negative "up" component.
	VelENU ENU
	// MassKG is the terminal (post-ablation) mass estimate [kg].
	MassKG float64
	// BulkDensityKGM3 is the assumed bulk density of the meteoroid
	// [kg/m^3], used to pick mass-loss coefficient bands (spec.md §4.C).
	BulkDensityKGM3 float64
	// Shape selects the hypersonic drag-coefficient catalogue entry
	// (spec.md §4.C): "sphere", "cylinder" or "brick".
	Shape string
	// MassLossCoeff is the ablation coefficient σ [s^2/m^2]. Zero means
	// "derive from BulkDensityKGM3 per the piecewise bands".
	MassLossCoeff float64
	// LiftCoeff is the optional lift coefficient; zero disables the lift
	// term entirely rather than contributing a zero-magnitude force in a
	// spurious direction (spec.md §4.D).
	LiftCoeff float64
}

// ToInitialCondition converts a TerminalState into the ECI position and
// velocity the integrator starts from, given the world it is propagated
// over. This is the one place the ingest layer's geodetic/ENU convention
// meets the propagator's ECI state vector.
func (t TerminalState) ToInitialCondition(w *World) (posECI, velECI ECI) {
	posECEF := w.LLH2ECEF(t.Pos)
	velECEF := ENU2ECEFVec(t.Pos, t.VelENU)
	epochSec := (t.EpochJD - 2451545.0) * 86400
	posECI, velECI = w.ECEF2ECI(posECEF, velECEF, epochSec)
	return posECI, velECI
}

// VectorFromElevationBearingSpeed builds a local ENU vector from an
// elevation angle above the horizontal, a bearing measured clockwise from
// north, and a speed magnitude. This is the inverse of the usual
// azimuth/elevation readout a radiant solution reports, used by the
// ensemble builder's configuration mode to turn zenith angle, azimuth and
// speed into a velocity (spec.md §4.G.3).
func VectorFromElevationBearingSpeed(elevationRad, bearingRad, speed float64) ENU {
	sinEl, cosEl := math.Sincos(elevationRad)
	sinBear, cosBear := math.Sincos(bearingRad)
	dir := md3.Vec{
		X: cosEl * sinBear, // east
		Y: cosEl * cosBear, // north
		Z: sinEl,           // up
	}
	return ENU{Vec: md3.Scale(speed, dir)}
}

// ElevationBearingSpeed decomposes an ENU vector back into elevation,
// bearing and speed, the inverse of VectorFromElevationBearingSpeed. The
// result assembler does not call it; its rows carry ECEF velocity
// components and speed only.
func ElevationBearingSpeed(v ENU) (elevationRad, bearingRad, speed float64) {
	speed = md3.Norm(v.Vec)
	if speed == 0 {
		return 0, 0, 0
	}
	elevationRad = math.Asin(v.Vec.Z / speed)
	bearingRad = math.Atan2(v.Vec.X, v.Vec.Y)
	if bearingRad < 0 {
		bearingRad += 2 * math.Pi
	}
	return elevationRad, bearingRad, speed
}
