package darkflight

import (
	"math"

	"github.com/soypat/geometry/md3"
)

// World holds the WGS84-class constants used throughout frame conversions
// and the central-body gravity model. Unlike soypat/gnco's World, it carries
// no oblateness (J2..J4) or SGP4 terms: the gravity model here is
// central-body only, and nothing performs orbit propagation — see
// DESIGN.md for why the orbits package wasn't carried forward.
type World struct {
	// Mu is the standard gravitational parameter GM of the world [m^3.s^-2].
	Mu float64
	// SemiMajorAxis is the equatorial radius of the reference ellipsoid [m].
	SemiMajorAxis float64
	// Flattening is the WGS84 ellipsoid flattening [adim].
	Flattening float64
	// Rotation is the angular rotation rate of the world about its polar
	// axis, in the inertial frame [rad/s].
	Rotation float64
}

// NewEarth returns the WGS84 Earth used by dark-flight propagations.
func NewEarth() *World {
	return &World{
		Mu:            3.986005e14,
		SemiMajorAxis: 6378137.0,
		Flattening:    1.0 / 298.257223563,
		Rotation:      7.292114999999999893e-05,
	}
}

func (w *World) eccentricitySquared() float64 {
	f := w.Flattening
	return f * (2 - f)
}

// EarthRadius returns the WGS84 ellipsoid radius at a given geodetic
// latitude [rad]. This is the "ground radius" baseline the terrain
// terminator adds height-above-sea-level to (spec.md §4.E).
func (w *World) EarthRadius(latRad float64) float64 {
	e2 := w.eccentricitySquared()
	b := w.SemiMajorAxis * math.Sqrt(1-e2)
	sinLat, cosLat := math.Sincos(latRad)
	num := math.Pow(w.SemiMajorAxis*w.SemiMajorAxis*cosLat, 2) + math.Pow(b*b*sinLat, 2)
	den := math.Pow(w.SemiMajorAxis*cosLat, 2) + math.Pow(b*sinLat, 2)
	return math.Sqrt(num / den)
}

// Day returns the sidereal rotation period of the world, in seconds.
func (w *World) Day() float64 {
	return 2 * math.Pi / w.Rotation
}

// GravityVector returns the gravitational acceleration at an ECI position
// using the central-body model a = -mu*r/|r|^3 — no J2 term, unlike
// soypat/gnco's GeodesicCoords.AGravG.
func (w *World) GravityVector(posECI md3.Vec) md3.Vec {
	r := md3.Norm(posECI)
	return md3.Scale(-w.Mu/(r*r*r), posECI)
}

// TEI returns the ECI-to-ECEF rotation tensor at epochTimeSec seconds,
// accounting for Earth rotation only (spec.md §4.A: "higher-order terms are
// not required").
func (w *World) TEI(epochTimeSec float64) md3.Mat3 {
	sin, cos := math.Sincos(w.Rotation * epochTimeSec)
	return mat3(
		cos, sin, 0,
		-sin, cos, 0,
		0, 0, 1,
	)
}

func mat3(a, b, c, d, e, f, g, h, i float64) md3.Mat3 {
	return md3.NewMat3([]float64{
		a, b, c,
		d, e, f,
		g, h, i,
	})
}
