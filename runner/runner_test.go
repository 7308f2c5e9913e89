package runner

import (
	"context"
	"math/rand"
	"testing"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/drag"
	"github.com/dfn-toolkit/darkflight/ensemble"
	"github.com/dfn-toolkit/darkflight/terrain"
)

type vacuumAtmosphere struct{}

func (vacuumAtmosphere) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) atmosphere.Sample {
	return atmosphere.Sample{WindECI: darkflight.ECI{}, DensityKGM3: 0, TemperatureK: 250}
}

// constantWindAtmosphere stands in for a per-realisation jittered sampler:
// its wind is whatever offset PerRealizationCopy happened to draw, and its
// small nonzero density lets that wind act on the trajectory through drag.
type constantWindAtmosphere struct{ windEastMS float64 }

func (c constantWindAtmosphere) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) atmosphere.Sample {
	return atmosphere.Sample{WindECI: darkflight.ECI{Vec: md3.Vec{X: c.windEastMS}}, DensityKGM3: 1e-4, TemperatureK: 250}
}

// jitterStubFactory implements atmosphere.PerRealizationSampler, drawing
// one float from the rng it's handed per call — exercising the same seam
// WindJitterFactory uses without pulling in the ensemble package's
// sounding/grid machinery.
type jitterStubFactory struct{}

func (jitterStubFactory) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) atmosphere.Sample {
	return constantWindAtmosphere{}.Sample(w, pos, tJD)
}

func (jitterStubFactory) PerRealizationCopy(rng *rand.Rand) atmosphere.Sampler {
	return constantWindAtmosphere{windEastMS: rng.Float64()}
}

var _ atmosphere.PerRealizationSampler = jitterStubFactory{}

func seedParticles(world *darkflight.World, n int) []ensemble.Particle {
	out := make([]ensemble.Particle, n)
	for i := range out {
		out[i] = ensemble.Particle{
			T0JD:            2451545.0,
			PosECI:          md3.Vec{X: world.SemiMajorAxis + 20000, Y: 0, Z: float64(i) * 10},
			VelECI:          md3.Vec{X: 0, Y: 7000, Z: 0},
			MassKG:          1.0,
			BulkDensityKGM3: 3500,
			ShapeA:          1.21,
			MassLossCoeff:   drag.MassLossCoefficient(3500, 1.21),
			Weight:          1.0 / float64(n),
		}
	}
	return out
}

func TestPartitionSizesCoversAllParticles(t *testing.T) {
	sizes := partitionSizes(10, 3)
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != 10 {
		t.Fatalf("partition sizes sum to %d, want 10", total)
	}
	if sizes[0] < sizes[len(sizes)-1] {
		t.Errorf("expected earlier workers to get the larger share: %v", sizes)
	}
}

func TestSubstreamSeedDeterministic(t *testing.T) {
	if substreamSeed(42, 3) != substreamSeed(42, 3) {
		t.Error("substreamSeed is not deterministic for identical inputs")
	}
	if substreamSeed(42, 3) == substreamSeed(42, 4) {
		t.Error("distinct salts collided")
	}
}

func TestRunGathersAllParticlesInOrder(t *testing.T) {
	world := darkflight.NewEarth()
	particles := seedParticles(world, 7)
	cfg := Config{
		World:          world,
		Atmosphere:     vacuumAtmosphere{},
		Ground:         terrain.ConstantSource{HeightM: 0},
		Workers:        3,
		FullTrajectory: false,
		RootSeed:       1,
	}
	results, err := Run(context.Background(), cfg, particles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(particles) {
		t.Fatalf("got %d results, want %d", len(results), len(particles))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d carries index %d", i, r.Index)
		}
		if r.Err != nil {
			t.Errorf("particle %d: %v", i, r.Err)
		}
		if len(r.Samples) == 0 {
			t.Errorf("particle %d: no samples", i)
		}
	}
}

// TestRunWindJitterDeterministicAcrossWorkerCounts exercises spec.md §8's
// determinism law directly through the PerRealizationSampler seam: the
// same RootSeed must produce bitwise-identical per-particle wind draws
// (and therefore identical trajectories) regardless of how many workers
// the ensemble is partitioned across.
func TestRunWindJitterDeterministicAcrossWorkerCounts(t *testing.T) {
	world := darkflight.NewEarth()
	particles := seedParticles(world, 7)

	run := func(workers int) []Result {
		cfg := Config{
			World:      world,
			Atmosphere: jitterStubFactory{},
			Ground:     terrain.ConstantSource{HeightM: 0},
			Workers:    workers,
			RootSeed:   99,
		}
		results, err := Run(context.Background(), cfg, particles)
		if err != nil {
			t.Fatalf("Run(workers=%d): %v", workers, err)
		}
		return results
	}

	oneWorker := run(1)
	fourWorkers := run(4)
	for i := range particles {
		a, b := oneWorker[i].Samples, fourWorkers[i].Samples
		if len(a) != len(b) {
			t.Fatalf("particle %d: sample count differs across worker counts: %d vs %d", i, len(a), len(b))
		}
		if len(a) == 0 {
			continue
		}
		if a[len(a)-1].State.Pos != b[len(b)-1].State.Pos {
			t.Errorf("particle %d: final position differs across worker counts", i)
		}
	}
}

func TestRunHandlesZeroParticles(t *testing.T) {
	world := darkflight.NewEarth()
	cfg := Config{World: world, Atmosphere: vacuumAtmosphere{}, Ground: terrain.ConstantSource{HeightM: 0}, Workers: 4}
	results, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
