// Package runner implements the dark-flight parallel runner (component
// H): deterministic N=Σnᵢ partitioning across W workers, goroutine
// fan-out with a deterministic per-particle PRNG substream for wind
// jitter, and an ordered gather of results.
package runner

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/dynamics"
	"github.com/dfn-toolkit/darkflight/ensemble"
	"github.com/dfn-toolkit/darkflight/terrain"
)

// Result pairs one particle's propagated trajectory with its originating
// index (for ordered gather) and any per-particle failure.
type Result struct {
	Index      int
	Particle   ensemble.Particle
	Samples    []dynamics.Sample
	Reason     dynamics.TerminationReason
	Err        error
}

// Config holds the parallel runner's inputs (spec.md §4.H).
type Config struct {
	World          *darkflight.World
	Atmosphere     atmosphere.Sampler
	Ground         terrain.Source
	CLift          float64
	Workers        int
	FullTrajectory bool // true for single-particle runs, per spec.md §4.H
	// RootSeed seeds every particle's deterministic wind-jitter PRNG
	// substream (spec.md's Design Note 9: "Monte-Carlo seeding...
	// deterministic substream"). Substreams are keyed by particle index,
	// not worker index, so the same RootSeed yields bitwise-identical
	// results for any worker count (spec.md §8's determinism law).
	RootSeed uint64
}

// partitionSizes returns the n_i block sizes partitioning N particles
// across W workers: n_i in {ceil(N/W), floor(N/W)}, the first N%W workers
// getting the larger size (spec.md §4.H).
func partitionSizes(n, workers int) []int {
	if workers <= 0 {
		workers = 1
	}
	base := n / workers
	rem := n % workers
	sizes := make([]int, workers)
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}

// substreamSeed derives a deterministic PRNG seed from the root seed and
// an arbitrary salt via a SplitMix64-style mix. Run uses a particle's
// global index as the salt for its wind-jitter draw, so the substream
// depends only on which particle it is, never on which worker happened
// to process it or how many workers there were (spec.md §8's determinism
// law: identical inputs yield identical results for any worker count).
func substreamSeed(root uint64, salt int) uint64 {
	z := root + uint64(salt)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Run partitions particles across cfg.Workers goroutines, propagates each
// particle, and gathers results in the original order. A worker with
// n_i=0 exits immediately (spec.md §4.H). ctx applies to the whole run,
// not to each particle: once ctx is done, every particle not yet started
// gets ctx's error in Result.Err (the caller excludes such results) and
// Run still returns the full, ordered result slice. A particle already
// propagating is not interrupted.
func Run(ctx context.Context, cfg Config, particles []ensemble.Particle) ([]Result, error) {
	results := make([]Result, len(particles))
	sizes := partitionSizes(len(particles), cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	start := 0
	for _, n := range sizes {
		if n == 0 {
			continue
		}
		lo, hi := start, start+n
		start += n
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				select {
				case <-gctx.Done():
					results[i] = Result{Index: i, Particle: particles[i], Err: gctx.Err()}
					continue
				default:
				}
				p := particles[i]
				atm := cfg.Atmosphere
				if jittered, ok := atm.(atmosphere.PerRealizationSampler); ok {
					prng := rand.New(rand.NewSource(int64(substreamSeed(cfg.RootSeed, i))))
					atm = jittered.PerRealizationCopy(prng)
				}
				state := dynamics.State{
					Pos:             p.PosECI,
					Vel:             p.VelECI,
					MassKG:          p.MassKG,
					BulkDensityKGM3: p.BulkDensityKGM3,
					ShapeA:          p.ShapeA,
					MassLossCoeff:   p.MassLossCoeff,
				}
				samples, reason, err := dynamics.Propagate(cfg.World, atm, cfg.Ground, state, p.T0JD, cfg.CLift, cfg.FullTrajectory)
				results[i] = Result{Index: i, Particle: p, Samples: samples, Reason: reason, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
