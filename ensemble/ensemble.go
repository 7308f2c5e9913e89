// Package ensemble implements the dark-flight ensemble builder
// (component G): three entry points reading terminal-flight observations
// in different input modes, fall-line mass expansion, and Monte-Carlo
// jitter of the initial condition.
package ensemble

import (
	"math"
	"math/rand"

	"github.com/soypat/geometry/md3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dfn-toolkit/darkflight/drag"
)

// Particle is one member of the initial ensemble: (t0, pos_eci, vel_eci,
// mass, rho_bulk, shape, c_ml, weight), per spec.md §4.G.
type Particle struct {
	T0JD            float64
	PosECI, VelECI  md3.Vec
	MassKG          float64
	BulkDensityKGM3 float64
	Shape           string
	ShapeA          float64
	MassLossCoeff   float64
	Weight          float64
}

// resolveShape returns the catalogued shape factor for a named shape, or
// the literal float already stored in shapeA when shape isn't catalogued
// (spec.md §4.C: "otherwise a user-supplied float is accepted verbatim").
func resolveShape(shape string, shapeA float64) float64 {
	if a, ok := drag.Lookup(shape); ok {
		return a
	}
	return shapeA
}

// MCConfig configures Monte-Carlo jitter (spec.md §4.G "Monte-Carlo
// jitter") as applied by Expand, which triangulation mode uses.
// Configuration mode (BuildFromConfig) does not use MCConfig: it jitters
// its scalar parameters directly from the montecarlo section's sigmas.
type MCConfig struct {
	N int

	// PositionSigmaM is the Gaussian position-perturbation sigma; when
	// zero, BuildFromTriangulation fills it from the last row's
	// cross-track error.
	PositionSigmaM float64
	// RaDecSigmaRad perturbs the ECI velocity's right ascension/declination.
	RaDecSigmaRad float64
	// SpeedSigmaMS perturbs the speed magnitude; default 100 m/s.
	SpeedSigmaMS float64
	// ShapeSigma perturbs the shape factor; default 0.15.
	ShapeSigma float64
	// BulkDensitySigmaKGM3 perturbs the bulk density.
	BulkDensitySigmaKGM3 float64
	// MassEpsilon is the uniform relative half-width for nominal-mass
	// perturbation, `[mass*(1-eps), mass*(1+eps)]`; default 0.1.
	MassEpsilon float64
	// MassLossRelSigma perturbs the mass-loss coefficient, 1% by default.
	MassLossRelSigma float64
	// TruncatedNormalMassDensity selects sampling mass/density from a
	// positive-truncated normal (the rule BuildFromConfig applies) rather
	// than the triangulation-mode uniform/Gaussian rules.
	TruncatedNormalMassDensity bool
}

// DefaultMCConfig returns the default Monte-Carlo sigmas (spec.md §4.G).
func DefaultMCConfig(n int) MCConfig {
	return MCConfig{
		N:                n,
		SpeedSigmaMS:     100,
		ShapeSigma:       0.15,
		MassEpsilon:      0.1,
		MassLossRelSigma: 0.01,
	}
}

// jitterParticle applies the Monte-Carlo perturbation rules to one seed
// particle, returning a new, independently-jittered particle. rng drives
// every draw, so a caller wanting deterministic draws seeds rng itself
// (cmd/darkflight seeds it from the run's root seed).
func jitterParticle(seed Particle, cfg MCConfig, rng *rand.Rand) Particle {
	p := seed

	if cfg.PositionSigmaM > 0 {
		n := distuv.Normal{Mu: 0, Sigma: cfg.PositionSigmaM, Src: rng}
		p.PosECI = md3.Add(p.PosECI, md3.Vec{X: n.Rand(), Y: n.Rand(), Z: n.Rand()})
	}

	speed := md3.Norm(p.VelECI)
	if speed > 0 {
		dir := md3.Scale(1/speed, p.VelECI)
		if cfg.RaDecSigmaRad > 0 {
			dir = jitterDirection(dir, cfg.RaDecSigmaRad, rng)
		}
		if cfg.SpeedSigmaMS > 0 {
			speed += distuv.Normal{Mu: 0, Sigma: cfg.SpeedSigmaMS, Src: rng}.Rand()
			if speed < 0 {
				speed = 0
			}
		}
		p.VelECI = md3.Scale(speed, dir)
	}

	if cfg.ShapeSigma > 0 {
		p.ShapeA += distuv.Normal{Mu: 0, Sigma: cfg.ShapeSigma, Src: rng}.Rand()
	}

	if cfg.BulkDensitySigmaKGM3 > 0 {
		if cfg.TruncatedNormalMassDensity {
			p.BulkDensityKGM3 = truncatedNormalPositive(p.BulkDensityKGM3, cfg.BulkDensitySigmaKGM3, rng)
		} else {
			p.BulkDensityKGM3 += distuv.Normal{Mu: 0, Sigma: cfg.BulkDensitySigmaKGM3, Src: rng}.Rand()
		}
	}

	if cfg.TruncatedNormalMassDensity {
		sigma := cfg.MassEpsilon * p.MassKG
		p.MassKG = truncatedNormalPositive(p.MassKG, sigma, rng)
	} else if cfg.MassEpsilon > 0 {
		lo, hi := p.MassKG*(1-cfg.MassEpsilon), p.MassKG*(1+cfg.MassEpsilon)
		p.MassKG = distuv.Uniform{Min: lo, Max: hi, Src: rng}.Rand()
	}

	if cfg.MassLossRelSigma > 0 {
		p.MassLossCoeff *= 1 + distuv.Normal{Mu: 0, Sigma: cfg.MassLossRelSigma, Src: rng}.Rand()
	}

	return p
}

// truncatedNormalPositive rejection-samples a normal(mean, sigma) until a
// positive draw is produced, matching scipy.stats.truncnorm(a=0, b=inf).
func truncatedNormalPositive(mean, sigma float64, rng *rand.Rand) float64 {
	if sigma <= 0 {
		return mean
	}
	n := distuv.Normal{Mu: mean, Sigma: sigma, Src: rng}
	for i := 0; i < 1000; i++ {
		if v := n.Rand(); v > 0 {
			return v
		}
	}
	return mean
}

// jitterDirection perturbs a unit velocity direction's right ascension and
// declination (as seen from the ECI frame's polar axis) by independent
// Gaussian draws of sigmaRad.
func jitterDirection(dir md3.Vec, sigmaRad float64, rng *rand.Rand) md3.Vec {
	ra := math.Atan2(dir.Y, dir.X)
	dec := math.Asin(clamp(dir.Z, -1, 1))
	n := distuv.Normal{Mu: 0, Sigma: sigmaRad, Src: rng}
	ra += n.Rand()
	dec += n.Rand()
	sinDec, cosDec := math.Sincos(dec)
	sinRA, cosRA := math.Sincos(ra)
	return md3.Vec{X: cosDec * cosRA, Y: cosDec * sinRA, Z: sinDec}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Expand applies Monte-Carlo jitter to a seed particle cfg.N times,
// returning cfg.N independent particles each carrying the seed's weight
// divided evenly. If cfg.N <= 0, Expand returns the seed unchanged as a
// single-element slice (spec.md §4.G: jitter only applies when `mc > 0`).
func Expand(seed Particle, cfg MCConfig, rng *rand.Rand) []Particle {
	if cfg.N <= 0 {
		return []Particle{seed}
	}
	out := make([]Particle, cfg.N)
	for i := range out {
		out[i] = jitterParticle(seed, cfg, rng)
		out[i].Weight = seed.Weight / float64(cfg.N)
	}
	return out
}

// ExpandFallLine expands one seed into one particle per mass in masses,
// the "fall-line" mode of spec.md §4.G.1, dividing weight evenly across
// the expansion.
func ExpandFallLine(seed Particle, masses []float64) []Particle {
	if len(masses) == 0 {
		return []Particle{seed}
	}
	out := make([]Particle, len(masses))
	for i, m := range masses {
		p := seed
		p.MassKG = m
		p.Weight = seed.Weight / float64(len(masses))
		out[i] = p
	}
	return out
}
