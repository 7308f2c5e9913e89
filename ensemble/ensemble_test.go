package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
)

func TestBuildFromTriangulationRawVelocity(t *testing.T) {
	world := darkflight.NewEarth()
	llh := darkflight.LLH{LatRad: 0.3, LonRad: 0.4, HeightM: 40000}
	posECEF := world.LLH2ECEF(llh)
	vel := md3.Vec{X: 100, Y: -200, Z: -7000}

	rows := []TriangulationRow{
		{JD: 2451545.0, PosECEF: posECEF.Vec, VelECEF: &vel},
	}
	particles, err := BuildFromTriangulation(world, rows, TriangulationMetadata{}, VelocityRaw, nil, 3500, "sphere", 0, 0, MCConfig{}, nil)
	if err != nil {
		t.Fatalf("BuildFromTriangulation: %v", err)
	}
	if len(particles) != 1 {
		t.Fatalf("expected 1 particle, got %d", len(particles))
	}
	if particles[0].ShapeA != 1.21 {
		t.Errorf("shape factor = %v, want 1.21 (sphere)", particles[0].ShapeA)
	}
}

func TestBuildFromTriangulationFallLineMassExpansion(t *testing.T) {
	world := darkflight.NewEarth()
	llh := darkflight.LLH{LatRad: 0.1, LonRad: 0.1, HeightM: 30000}
	posECEF := world.LLH2ECEF(llh)
	vel := md3.Vec{X: 0, Y: 0, Z: -6000}

	rows := []TriangulationRow{{JD: 2451545.0, PosECEF: posECEF.Vec, VelECEF: &vel}}
	masses := []float64{0.1, 1.0, 10.0}
	particles, err := BuildFromTriangulation(world, rows, TriangulationMetadata{}, VelocityRaw, masses, 3500, "sphere", 0, 0, MCConfig{}, nil)
	if err != nil {
		t.Fatalf("BuildFromTriangulation: %v", err)
	}
	if len(particles) != len(masses) {
		t.Fatalf("expected %d particles, got %d", len(masses), len(particles))
	}
	totalWeight := 0.0
	for _, p := range particles {
		totalWeight += p.Weight
	}
	if math.Abs(totalWeight-1) > 1e-9 {
		t.Errorf("total weight = %v, want 1", totalWeight)
	}
}

func TestExpandMonteCarloDeterministic(t *testing.T) {
	seed := Particle{PosECI: md3.Vec{X: 1, Y: 2, Z: 3}, VelECI: md3.Vec{X: 100, Y: 0, Z: -7000}, MassKG: 1, BulkDensityKGM3: 3500, ShapeA: 1.21, MassLossCoeff: 1e-7, Weight: 1}
	cfg := DefaultMCConfig(5)
	cfg.PositionSigmaM = 10

	rng1 := rand.New(rand.NewSource(42))
	out1 := Expand(seed, cfg, rng1)
	rng2 := rand.New(rand.NewSource(42))
	out2 := Expand(seed, cfg, rng2)

	for i := range out1 {
		if out1[i].PosECI != out2[i].PosECI {
			t.Errorf("particle %d not deterministic: %v vs %v", i, out1[i].PosECI, out2[i].PosECI)
		}
	}
}

func TestBuildFromParticlesFiltersLowMass(t *testing.T) {
	world := darkflight.NewEarth()
	rows := []ParticleRow{
		{JD: 2451545.0, PosECEF: md3.Vec{X: 1, Y: 2, Z: 3}, MassKG: 0.001, Kappa: 0.015, Sigma: 1e-8, ShapeA: 1.21, Weight: 1},
		{JD: 2451545.0, PosECEF: md3.Vec{X: 4, Y: 5, Z: 6}, MassKG: 0.5, Kappa: 0.015, Sigma: 1e-8, ShapeA: 1.21, Weight: 1},
	}
	particles := BuildFromParticles(world, rows)
	if len(particles) != 1 {
		t.Fatalf("expected 1 particle above the 10g floor, got %d", len(particles))
	}
	if math.Abs(particles[0].BulkDensityKGM3-1000) > 1 {
		t.Errorf("bulk density reconstruction = %v, want close to 1000", particles[0].BulkDensityKGM3)
	}
}
