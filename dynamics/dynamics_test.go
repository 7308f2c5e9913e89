package dynamics

import (
	"math"
	"testing"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/drag"
	"github.com/dfn-toolkit/darkflight/terrain"
)

// vacuumAtmosphere has zero density everywhere, isolating gravity-only
// dynamics for the idempotence check.
type vacuumAtmosphere struct{}

func (vacuumAtmosphere) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) atmosphere.Sample {
	return atmosphere.Sample{WindECI: darkflight.ECI{}, DensityKGM3: 0, TemperatureK: 250}
}

func TestIdempotenceZeroSecondsOfDynamics(t *testing.T) {
	world := darkflight.NewEarth()
	s := State{
		Pos:             md3.Vec{X: world.SemiMajorAxis + 20000, Y: 0, Z: 0},
		Vel:             md3.Vec{X: 0, Y: 7000, Z: 0},
		MassKG:          1.0,
		BulkDensityKGM3: 3500,
		ShapeA:          1.21,
		MassLossCoeff:   drag.MassLossCoefficient(3500, 1.21),
	}
	ground := terrain.ConstantSource{HeightM: 0}
	samples, _, err := Propagate(world, vacuumAtmosphere{}, ground, s, 2451545.0, 0, true)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected at least one sample")
	}
	first := samples[0]
	if md3.Norm(md3.Sub(first.State.Pos, s.Pos)) > 1e-6 {
		t.Errorf("first recorded position should equal the initial condition, got %v want %v", first.State.Pos, s.Pos)
	}
}

func TestMassStrictlyDecreasingUnderDrag(t *testing.T) {
	world := darkflight.NewEarth()
	llh := darkflight.LLH{LatRad: 0.1, LonRad: 0.2, HeightM: 30000}
	posECEF := world.LLH2ECEF(llh)
	posECI := world.ECEF2ECIPos(posECEF, 0)

	s := State{
		Pos:             posECI.Vec,
		Vel:             md3.Scale(-7000, md3.Unit(posECI.Vec)),
		MassKG:          0.5,
		BulkDensityKGM3: 3500,
		ShapeA:          1.21,
		MassLossCoeff:   drag.MassLossCoefficient(3500, 1.21),
	}
	ground := terrain.ConstantSource{HeightM: 0}
	samples, _, err := Propagate(world, atmosphere.NewReferenceSampler(), ground, s, 2451545.0, 0, true)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].State.MassKG >= samples[i-1].State.MassKG {
			t.Fatalf("mass did not decrease between steps %d and %d: %v -> %v", i-1, i, samples[i-1].State.MassKG, samples[i].State.MassKG)
		}
	}
}

func TestImpactRadiusMatchesGroundSurface(t *testing.T) {
	world := darkflight.NewEarth()
	llh := darkflight.LLH{LatRad: 0.1, LonRad: 0.2, HeightM: 20000}
	posECEF := world.LLH2ECEF(llh)
	posECI := world.ECEF2ECIPos(posECEF, 0)

	s := State{
		Pos:             posECI.Vec,
		Vel:             md3.Scale(-300, md3.Unit(posECI.Vec)),
		MassKG:          5,
		BulkDensityKGM3: 3500,
		ShapeA:          1.21,
		MassLossCoeff:   drag.MassLossCoefficient(3500, 1.21),
	}
	ground := terrain.ConstantSource{HeightM: 100}
	samples, reason, err := Propagate(world, atmosphere.NewReferenceSampler(), ground, s, 2451545.0, 0, false)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if reason != TerminationImpact && reason != TerminationAblated {
		t.Fatalf("unexpected termination reason: %v", reason)
	}
	final := samples[len(samples)-1]
	epochSec := (final.TimeJD - 2451545.0) * 86400
	finalECEF := world.ECI2ECEFPos(darkflight.ECI{Vec: final.State.Pos}, epochSec)
	finalLLH := world.ECEF2LLH(finalECEF)
	rGot := md3.Norm(final.State.Pos)
	rWant := world.EarthRadius(finalLLH.LatRad) + 100
	if math.Abs(rGot-rWant) > 5 {
		t.Errorf("final radius = %v, want close to %v (ground surface)", rGot, rWant)
	}
}
