package ensemble

import (
	"errors"
	"math"
	"math/rand"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/drag"
)

// VelocityModel selects how triangulation mode derives the seed velocity
// (spec.md §4.G.1).
type VelocityModel string

const (
	VelocityRaw   VelocityModel = "raw"
	VelocityEKS   VelocityModel = "eks"
	VelocityGrits VelocityModel = "grits"
)

// ErrUnknownVelocityModel is ErrArgumentInvalid's triangulation-mode cause
// (spec.md §6/§7: "unknown velocity model").
var ErrUnknownVelocityModel = errors.New("ensemble: unknown velocity model")

// TriangulationRow is one row of a tabular terminal-state table (spec.md
// §6's `.ecsv`-style event file).
type TriangulationRow struct {
	JD             float64
	PosECEF        md3.Vec
	VelECEF        *md3.Vec // nil if the table has no velocity columns
	SpeedMS        float64  // D_DT_EKS | D_DT_fitted | D_DT_geo, whichever the reader resolved
	CrossTrackErrM float64
}

// TriangulationMetadata carries the optional asymptotic-radiant metadata
// (spec.md §6's `triangulation_ra_ecef_inf` family).
type TriangulationMetadata struct {
	HasRadiant      bool
	RAeciInfRad     float64
	DecEciInfRad    float64
	RAeciInfErrRad  float64
	DecEciInfErrRad float64
}

// BuildFromTriangulation implements spec.md §4.G.1: seed from the last
// row of a tabular terminal state, deriving velocity per model, expanding
// a fall-line mass list, and jittering for a Monte-Carlo ensemble.
func BuildFromTriangulation(
	world *darkflight.World,
	rows []TriangulationRow,
	meta TriangulationMetadata,
	model VelocityModel,
	masses []float64,
	bulkDensityKGM3 float64,
	shape string,
	shapeA float64,
	massLossCoeff float64,
	mc MCConfig,
	rng *rand.Rand,
) ([]Particle, error) {
	if len(rows) == 0 {
		return nil, errors.New("ensemble: no triangulation rows")
	}
	last := rows[len(rows)-1]
	resolvedA := resolveShape(shape, shapeA)
	if massLossCoeff == 0 {
		massLossCoeff = drag.MassLossCoefficient(bulkDensityKGM3, resolvedA)
	}

	var velECEF md3.Vec
	switch model {
	case VelocityRaw:
		if last.VelECEF != nil {
			velECEF = *last.VelECEF
		} else if len(rows) >= 2 {
			velECEF = finiteDifferenceVelocity(rows[len(rows)-2], last)
		} else {
			return nil, errors.New("ensemble: raw velocity model needs velocity columns or at least two rows")
		}
	case VelocityEKS, VelocityGrits:
		var dir md3.Vec
		if meta.HasRadiant {
			dir = radiantToVelocityDirection(meta.RAeciInfRad, meta.DecEciInfRad)
		} else if len(rows) >= 2 {
			diff := md3.Sub(last.PosECEF, rows[len(rows)-2].PosECEF)
			n := md3.Norm(diff)
			if n == 0 {
				return nil, errors.New("ensemble: cannot infer radiant from coincident rows")
			}
			dir = md3.Scale(1/n, diff)
		} else {
			return nil, errors.New("ensemble: eks/grits velocity model needs radiant metadata or at least two rows")
		}
		velECEF = md3.Scale(last.SpeedMS, dir)
	default:
		return nil, ErrUnknownVelocityModel
	}

	epochSec := (last.JD - 2451545.0) * 86400
	posECI, velECI := world.ECEF2ECI(darkflight.ECEF{Vec: last.PosECEF}, darkflight.ECEF{Vec: velECEF}, epochSec)

	seed := Particle{
		T0JD:            last.JD,
		PosECI:          posECI.Vec,
		VelECI:          velECI.Vec,
		MassKG:          0,
		BulkDensityKGM3: bulkDensityKGM3,
		Shape:           shape,
		ShapeA:          resolvedA,
		MassLossCoeff:   massLossCoeff,
		Weight:          1,
	}

	seeds := ExpandFallLine(seed, masses)

	if mc.N > 0 {
		if mc.PositionSigmaM == 0 && last.CrossTrackErrM != 0 {
			mc.PositionSigmaM = last.CrossTrackErrM
		}
		if mc.RaDecSigmaRad == 0 && meta.HasRadiant {
			mc.RaDecSigmaRad = math.Max(meta.RAeciInfErrRad, meta.DecEciInfErrRad)
		}
		var out []Particle
		for _, s := range seeds {
			out = append(out, Expand(s, mc, rng)...)
		}
		return out, nil
	}
	return seeds, nil
}

func finiteDifferenceVelocity(prev, last TriangulationRow) md3.Vec {
	dt := (last.JD - prev.JD) * 86400
	if dt == 0 {
		return md3.Vec{}
	}
	return md3.Scale(1/dt, md3.Sub(last.PosECEF, prev.PosECEF))
}

// radiantToVelocityDirection converts an asymptotic radiant (the point the
// meteor appears to have come from) into the forward velocity direction:
// the antipode of the radiant unit vector.
func radiantToVelocityDirection(raRad, decRad float64) md3.Vec {
	sinDec, cosDec := math.Sincos(decRad)
	sinRA, cosRA := math.Sincos(raRad)
	radiant := md3.Vec{X: cosDec * cosRA, Y: cosDec * sinRA, Z: sinDec}
	return md3.Scale(-1, radiant)
}
