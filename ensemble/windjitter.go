package ensemble

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
)

// windVectorToSpeedDir and speedDirToWindVector convert between the
// sounding's (speed, wind-from-direction) convention and an east/north
// wind vector, matching windFromSpeedDirection's sign convention: the
// vector points where the wind blows TO, not where it comes FROM.

func windVectorToSpeedDir(east, north float64) (speed, dirRad float64) {
	speed = math.Hypot(east, north)
	dirRad = math.Atan2(-east, -north)
	if dirRad < 0 {
		dirRad += 2 * math.Pi
	}
	return speed, dirRad
}

func speedDirToWindVector(speed, dirRad float64) (east, north float64) {
	sinDir, cosDir := math.Sincos(dirRad)
	return -speed * sinDir, -speed * cosDir
}

// jitterSounding returns a copy of s with every height layer's wind
// independently offset on its east and north components by a draw from
// Uniform(-windErrMS, windErrMS) (spec.md §4.G: "each layer ... is
// independently offset"), re-expressed in the sounding's native
// speed/direction columns. Offsetting the east/north vector and
// recomputing (speed, direction) from it folds spec.md §4.G's "direction-
// error draw" into the same offset, rather than drawing it separately:
// any east/north perturbation already changes the resulting direction.
func jitterSounding(s atmosphere.Sounding, windErrMS float64, rng *rand.Rand) atmosphere.Sounding {
	out := s
	out.WindSpeedMS = append([]float64(nil), s.WindSpeedMS...)
	out.WindDirRad = append([]float64(nil), s.WindDirRad...)
	u := distuv.Uniform{Min: -windErrMS, Max: windErrMS, Src: rng}
	for i := range out.WindSpeedMS {
		east, north := speedDirToWindVector(out.WindSpeedMS[i], out.WindDirRad[i])
		east += u.Rand()
		north += u.Rand()
		out.WindSpeedMS[i], out.WindDirRad[i] = windVectorToSpeedDir(east, north)
	}
	return out
}

// jitterGrid returns a copy of d with every (snapshot, lat, lon, level)
// cell's wind independently offset on its U/V/W components by a draw from
// Uniform(-windErrMS, windErrMS) (spec.md §4.G: "each grid cell (3-D) is
// independently offset"; the vertical component is perturbed the same
// way as east/north, per the same rule's "applied analogously").
func jitterGrid(d atmosphere.GridDataset, windErrMS float64, rng *rand.Rand) atmosphere.GridDataset {
	out := atmosphere.GridDataset{Snapshots: make([]atmosphere.GridSnapshot, len(d.Snapshots))}
	u := distuv.Uniform{Min: -windErrMS, Max: windErrMS, Src: rng}
	for si, snap := range d.Snapshots {
		jittered := snap
		jittered.U = jitterCube(snap.U, u)
		jittered.V = jitterCube(snap.V, u)
		jittered.W = jitterCube(snap.W, u)
		out.Snapshots[si] = jittered
	}
	return out
}

func jitterCube(cube [][][]float64, u distuv.Uniform) [][][]float64 {
	out := make([][][]float64, len(cube))
	for i, plane := range cube {
		out[i] = make([][]float64, len(plane))
		for j, col := range plane {
			out[i][j] = make([]float64, len(col))
			for k, v := range col {
				out[i][j][k] = v + u.Rand()
			}
		}
	}
	return out
}

// WindJitterFactory draws a fresh, independent wind-error realisation for
// each Monte-Carlo particle rather than fixing one offset for an entire
// run: every sounding layer or grid cell gets its own draw each time
// PerRealizationCopy is called (spec.md §4.G). It wraps the unjittered
// dataset and a fallback sampler for queries the dataset does not cover,
// the same pairing NewSoundingSampler/NewGridSampler take.
type WindJitterFactory struct {
	sounding  *atmosphere.Sounding
	grid      *atmosphere.GridDataset
	base      atmosphere.Sampler
	fallback  atmosphere.Sampler
	windErrMS float64
}

// NewSoundingWindJitterFactory builds a factory over a 1-D sounding.
func NewSoundingWindJitterFactory(s atmosphere.Sounding, fallback atmosphere.Sampler, windErrMS float64) (*WindJitterFactory, error) {
	base, err := atmosphere.NewSoundingSampler(s, fallback)
	if err != nil {
		return nil, err
	}
	return &WindJitterFactory{sounding: &s, base: base, fallback: fallback, windErrMS: windErrMS}, nil
}

// NewGridWindJitterFactory builds a factory over a 4-D gridded forecast.
func NewGridWindJitterFactory(d atmosphere.GridDataset, fallback atmosphere.Sampler, windErrMS float64) *WindJitterFactory {
	return &WindJitterFactory{grid: &d, base: atmosphere.NewGridSampler(d, fallback), fallback: fallback, windErrMS: windErrMS}
}

// PerRealizationCopy draws a fresh independent offset per layer/cell from
// rng and returns a Sampler over the jittered dataset. runner.Run calls
// this once per particle, so every Monte-Carlo realisation gets its own
// wind-error draw (spec.md §4.G), not one shared across the ensemble.
func (f *WindJitterFactory) PerRealizationCopy(rng *rand.Rand) atmosphere.Sampler {
	switch {
	case f.sounding != nil:
		jittered := jitterSounding(*f.sounding, f.windErrMS, rng)
		sampler, err := atmosphere.NewSoundingSampler(jittered, f.fallback)
		if err != nil {
			return f.base
		}
		return sampler
	case f.grid != nil:
		jittered := jitterGrid(*f.grid, f.windErrMS, rng)
		return atmosphere.NewGridSampler(jittered, f.fallback)
	default:
		return f.base
	}
}

// Sample satisfies atmosphere.Sampler directly against the unjittered
// dataset. Real runs always go through PerRealizationCopy (runner.Run
// type-asserts for atmosphere.PerRealizationSampler); this exists so
// WindJitterFactory is itself usable wherever a plain Sampler is needed.
func (f *WindJitterFactory) Sample(world *darkflight.World, pos darkflight.ECI, tJD float64) atmosphere.Sample {
	return f.base.Sample(world, pos, tJD)
}

var (
	_ atmosphere.Sampler               = (*WindJitterFactory)(nil)
	_ atmosphere.PerRealizationSampler = (*WindJitterFactory)(nil)
)
