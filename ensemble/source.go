package ensemble

import (
	"math/rand"

	"github.com/dfn-toolkit/darkflight"
)

// Source is the common shape all three event-file modes adapt into: a
// self-contained recipe for building the initial ensemble, independent of
// how the underlying file was parsed (spec.md §1's component boundary —
// binary particle-snapshot tables and the gridded-forecast reader live
// behind this same seam without a core change).
type Source interface {
	Build(world *darkflight.World, rng *rand.Rand) ([]Particle, error)
}

// TriangulationSource adapts a parsed tabular triangulation event file
// (spec.md §4.G.1) into a Source.
type TriangulationSource struct {
	Rows            []TriangulationRow
	Meta            TriangulationMetadata
	Model           VelocityModel
	Masses          []float64
	BulkDensityKGM3 float64
	Shape           string
	ShapeA          float64
	MassLossCoeff   float64
	MC              MCConfig
}

func (s TriangulationSource) Build(world *darkflight.World, rng *rand.Rand) ([]Particle, error) {
	return BuildFromTriangulation(world, s.Rows, s.Meta, s.Model, s.Masses,
		s.BulkDensityKGM3, s.Shape, s.ShapeA, s.MassLossCoeff, s.MC, rng)
}

// ParticleSnapshotSource adapts a parsed binary particle-snapshot table
// (spec.md §6) into a Source; rng is unused since particle-mode carries
// its own per-row weights rather than being Monte-Carlo-jittered.
type ParticleSnapshotSource struct {
	Rows []ParticleRow
}

func (s ParticleSnapshotSource) Build(world *darkflight.World, _ *rand.Rand) ([]Particle, error) {
	return BuildFromParticles(world, s.Rows), nil
}

// ConfigFileSource adapts a parsed configuration-mode input file (spec.md
// §6) into a Source.
type ConfigFileSource struct {
	Config     Config
	MonteCarlo int
}

func (s ConfigFileSource) Build(world *darkflight.World, rng *rand.Rand) ([]Particle, error) {
	return BuildFromConfig(world, s.Config, s.MonteCarlo, rng)
}

var (
	_ Source = TriangulationSource{}
	_ Source = ParticleSnapshotSource{}
	_ Source = ConfigFileSource{}
)
