package ensemble

import (
	"math"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/drag"
)

// ParticleRow is one row of a particle-snapshot binary table (spec.md §6:
// `time, X_geo, Y_geo, Z_geo, X_geo_DT, Y_geo_DT, Z_geo_DT, mass, kappa,
// sigma, A, weight, datetime`).
type ParticleRow struct {
	JD       float64
	PosECEF  md3.Vec
	VelECEF  md3.Vec
	MassKG   float64
	Kappa    float64
	Sigma    float64
	ShapeA   float64
	Weight   float64
}

// minParticleMassKG is the 10 g floor spec.md §4.G.2 filters particle-mode
// rows by.
const minParticleMassKG = 0.010

// BuildFromParticles implements spec.md §4.G.2: every unique terminal
// position whose mass exceeds 10 g becomes a particle, with bulk density
// reconstructed from kappa as (1.5/kappa)^(3/2) and mass-loss coefficient
// as sigma*Cd_hyp(A).
func BuildFromParticles(world *darkflight.World, rows []ParticleRow) []Particle {
	seen := make(map[md3.Vec]bool, len(rows))
	out := make([]Particle, 0, len(rows))
	for _, r := range rows {
		if r.MassKG <= minParticleMassKG {
			continue
		}
		if seen[r.PosECEF] {
			continue
		}
		seen[r.PosECEF] = true

		bulkDensity := math.Pow(1.5/r.Kappa, 1.5)
		epochSec := (r.JD - 2451545.0) * 86400
		posECI, velECI := world.ECEF2ECI(darkflight.ECEF{Vec: r.PosECEF}, darkflight.ECEF{Vec: r.VelECEF}, epochSec)

		out = append(out, Particle{
			T0JD:            r.JD,
			PosECI:          posECI.Vec,
			VelECI:          velECI.Vec,
			MassKG:          r.MassKG,
			BulkDensityKGM3: bulkDensity,
			ShapeA:          r.ShapeA,
			MassLossCoeff:   r.Sigma * drag.CdHypersonic(r.ShapeA),
			Weight:          r.Weight,
		})
	}
	return out
}
