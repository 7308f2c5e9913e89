package darkflight

import (
	"math"

	"github.com/soypat/geometry/md3"
)

// ECI is a position or velocity expressed in the Earth-centred inertial
// frame (metres, or metres/second for velocities).
type ECI struct{ Vec md3.Vec }

// ECEF is a position or velocity expressed in the Earth-centred,
// Earth-fixed (rotating) frame.
type ECEF struct{ Vec md3.Vec }

// ENU is a vector (typically wind) expressed in a local east-north-up
// tangent frame anchored at some (lat, lon).
type ENU struct{ Vec md3.Vec }

// LLH is a geodetic position: latitude and longitude in radians, height in
// metres above the WGS84 ellipsoid.
type LLH struct {
	LatRad, LonRad, HeightM float64
}

// Distinct ECI/ECEF/ENU/LLH types, rather than a single md3.Vec passed
// around with a frame tag, mean a call site that mixes up an ECEF velocity
// with an ECI one fails to compile instead of silently producing a wrong
// trajectory.

// LLH2ECEF converts a geodetic position to ECEF using the WGS84-class
// ellipsoid held by w.
func (w *World) LLH2ECEF(p LLH) ECEF {
	e2 := w.eccentricitySquared()
	sinLat, cosLat := math.Sincos(p.LatRad)
	sinLon, cosLon := math.Sincos(p.LonRad)
	n := w.SemiMajorAxis / math.Sqrt(1-e2*sinLat*sinLat)
	return ECEF{Vec: md3.Vec{
		X: (n + p.HeightM) * cosLat * cosLon,
		Y: (n + p.HeightM) * cosLat * sinLon,
		Z: (n*(1-e2) + p.HeightM) * sinLat,
	}}
}

// ECEF2LLH converts an ECEF position to geodetic latitude/longitude/height
// via Bowring's method, iterated to convergence.
func (w *World) ECEF2LLH(p ECEF) LLH {
	x, y, z := p.Vec.X, p.Vec.Y, p.Vec.Z
	lon := math.Atan2(y, x)
	a := w.SemiMajorAxis
	e2 := w.eccentricitySquared()
	b := a * math.Sqrt(1-e2)
	rho := math.Hypot(x, y)
	if rho < 1e-9 {
		lat := math.Pi / 2
		if z < 0 {
			lat = -lat
		}
		return LLH{LatRad: lat, LonRad: 0, HeightM: math.Abs(z) - b}
	}
	epPrime2 := (a*a - b*b) / (b * b)
	theta := math.Atan2(z*a, rho*b)
	sinT, cosT := math.Sincos(theta)
	lat := math.Atan2(z+epPrime2*b*sinT*sinT*sinT, rho-e2*a*cosT*cosT*cosT)
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := a / math.Sqrt(1-e2*sinLat*sinLat)
		h := rho/math.Cos(lat) - n
		lat = math.Atan2(z, rho*(1-e2*n/(n+h)))
	}
	sinLat := math.Sin(lat)
	n := a / math.Sqrt(1-e2*sinLat*sinLat)
	h := rho/math.Cos(lat) - n
	return LLH{LatRad: lat, LonRad: lon, HeightM: h}
}

// ECI2ECEF converts an inertial position and velocity to the rotating
// Earth-fixed frame at epochTimeSec seconds. The velocity transform
// accounts for the rotating frame: v_ecef = R*(v_eci - ω×r_eci).
func (w *World) ECI2ECEF(posECI, velECI ECI, epochTimeSec float64) (ECEF, ECEF) {
	R := w.TEI(epochTimeSec)
	omega := md3.Vec{X: 0, Y: 0, Z: w.Rotation}
	vRot := md3.Sub(velECI.Vec, md3.Cross(omega, posECI.Vec))
	return ECEF{Vec: md3.MulMatVec(R, posECI.Vec)}, ECEF{Vec: md3.MulMatVec(R, vRot)}
}

// ECEF2ECI is the inverse of ECI2ECEF: v_eci = R^T*v_ecef + ω×r_eci.
func (w *World) ECEF2ECI(posECEF, velECEF ECEF, epochTimeSec float64) (ECI, ECI) {
	R := w.TEI(epochTimeSec)
	posECI := md3.MulMatVecTrans(R, posECEF.Vec)
	velRot := md3.MulMatVecTrans(R, velECEF.Vec)
	omega := md3.Vec{X: 0, Y: 0, Z: w.Rotation}
	velECI := md3.Add(velRot, md3.Cross(omega, posECI))
	return ECI{Vec: posECI}, ECI{Vec: velECI}
}

// ECI2ECEFPos converts only a position, the common case inside the
// dynamics function and terrain lookups where velocity is not needed.
func (w *World) ECI2ECEFPos(posECI ECI, epochTimeSec float64) ECEF {
	return ECEF{Vec: md3.MulMatVec(w.TEI(epochTimeSec), posECI.Vec)}
}

// ECEF2ECIPos is the position-only inverse of ECI2ECEFPos.
func (w *World) ECEF2ECIPos(posECEF ECEF, epochTimeSec float64) ECI {
	return ECI{Vec: md3.MulMatVecTrans(w.TEI(epochTimeSec), posECEF.Vec)}
}

// ENUToECEFRot returns the rotation tensor converting east-north-up
// components at (lat, lon) into ECEF components. It is a pure rotation,
// meaningful applied to a vector (wind, velocity) and not to a position.
func ENUToECEFRot(latRad, lonRad float64) md3.Mat3 {
	sinLat, cosLat := math.Sincos(latRad)
	sinLon, cosLon := math.Sincos(lonRad)
	return mat3(
		-sinLon, -sinLat*cosLon, cosLat*cosLon,
		cosLon, -sinLat*sinLon, cosLat*sinLon,
		0, cosLat, sinLat,
	)
}

// ENU2ECEFVec rotates an east-north-up vector into ECEF components at the
// geodetic position p. Used to rotate sampled wind vectors (native ENU)
// into ECEF components, which the atmosphere samplers then rotate into the
// ECI frame the dynamics function integrates in.
func ENU2ECEFVec(p LLH, v ENU) ECEF {
	return ECEF{Vec: md3.MulMatVec(ENUToECEFRot(p.LatRad, p.LonRad), v.Vec)}
}

// ECEF2ENUVec is the inverse rotation of ENU2ECEFVec.
func ECEF2ENUVec(p LLH, v ECEF) ENU {
	return ENU{Vec: md3.MulMatVecTrans(ENUToECEFRot(p.LatRad, p.LonRad), v.Vec)}
}
