// Package atmosphere implements the dark-flight atmosphere sampler
// (component B): wind/density/temperature sampling from an optional 1-D
// sounding, an optional 4-D gridded forecast, and a reference fallback
// model, plus the bounded diagnostic history a propagation accumulates.
package atmosphere

import (
	"math"
	"math/rand"
	"slices"

	"github.com/soypat/geometry/md1"
	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
)

// Sample is the result of one atmosphere query: wind velocity in the ECI
// frame and the local density and temperature.
type Sample struct {
	WindECI     darkflight.ECI
	DensityKGM3 float64
	TemperatureK float64
}

// HistoryEntry is one recorded query, kept for diagnostic plotting and for
// the 3-D sampler's last-valid-sample fallback.
type HistoryEntry struct {
	HeightM float64
	WindENU darkflight.ENU
	DensityKGM3 float64
	TemperatureK float64
}

// Sampler is the single public operation a propagation needs: sample the
// atmosphere at an ECI position and Julian date.
type Sampler interface {
	Sample(world *darkflight.World, pos darkflight.ECI, tJD float64) Sample
}

// PerRealizationSampler is implemented by samplers whose Monte-Carlo wind
// jitter must be redrawn independently for each ensemble particle, rather
// than fixed once for a whole run (spec.md §4.G: "per Monte-Carlo
// realisation, each layer (1-D) or each grid cell (3-D) is independently
// offset"). runner.Run type-asserts for this to give every particle its
// own realisation instead of sharing one jittered sampler across the
// ensemble.
type PerRealizationSampler interface {
	Sampler
	PerRealizationCopy(rng *rand.Rand) Sampler
}

// historyCapacity bounds the ring buffer every sampler implementation
// shares; per spec the history is diagnostic only, never consulted by the
// dynamical state itself except for the 3-D last-valid fallback.
const historyCapacity = 4096

// history is a fixed-capacity, overwrite-oldest ring buffer of sample
// queries, embedded by every concrete sampler below.
type history struct {
	buf   [historyCapacity]HistoryEntry
	count int
	next  int
}

func (h *history) push(e HistoryEntry) {
	h.buf[h.next] = e
	h.next = (h.next + 1) % historyCapacity
	if h.count < historyCapacity {
		h.count++
	}
}

// Entries returns the recorded entries in chronological order, oldest
// first, for diagnostic plotting.
func (h *history) Entries() []HistoryEntry {
	out := make([]HistoryEntry, h.count)
	start := h.next - h.count
	if start < 0 {
		start += historyCapacity
	}
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(start+i)%historyCapacity]
	}
	return out
}

// last returns the most recently pushed entry and whether one exists.
func (h *history) last() (HistoryEntry, bool) {
	if h.count == 0 {
		return HistoryEntry{}, false
	}
	idx := h.next - 1
	if idx < 0 {
		idx += historyCapacity
	}
	return h.buf[idx], true
}

// windFromSpeedDirection builds the east-north-up wind vector from the
// 1-D sounding's speed/direction convention: WDir is the clockwise azimuth
// the wind blows FROM (spec.md §4.B rule 5).
func windFromSpeedDirection(speed, wdirRad float64) darkflight.ENU {
	sinDir, cosDir := math.Sincos(wdirRad)
	return darkflight.ENU{Vec: md3.Scale(-speed, md3.Vec{X: sinDir, Y: cosDir, Z: 0})}
}

// rotationVelocity returns ω_earth × pos_eci, the velocity contribution of
// Earth's rotation added to atmosphere-relative wind to produce an
// inertial-frame wind vector (spec.md §4.B rule 6).
func rotationVelocity(w *darkflight.World, posECI darkflight.ECI) md3.Vec {
	omega := md3.Vec{X: 0, Y: 0, Z: w.Rotation}
	return md3.Cross(omega, posECI.Vec)
}

// densityFromStateVars implements the Wobus-polynomial saturation-vapour-
// pressure density formula (spec.md §4.B rule 2). relHumidity is the 0-1
// fraction spec.md §3 defines for a sounding/grid dataset, not a percent.
func densityFromStateVars(tempK, pressurePa, relHumidity float64) float64 {
	const Rd = 287.05
	pv := saturationVapourPressure(tempK) * relHumidity
	return (pressurePa / (Rd * tempK)) * (1 - 0.378*pv/pressurePa)
}

// saturationVapourPressure evaluates Herman Wobus's polynomial
// approximation for saturation vapour pressure over water, in pascals,
// given temperature in kelvin: es = es0 / pol(T)^8, matching
// df_functions.density_from_pressure's reference implementation.
func saturationVapourPressure(tempK float64) float64 {
	tempC := tempK - 273.15
	const (
		es0 = 6.1078
		c0  = 0.99999683
		c1  = -0.90826951e-02
		c2  = 0.78736169e-04
		c3  = -0.61117958e-06
		c4  = 0.43884187e-08
		c5  = -0.29883885e-10
		c6  = 0.21874425e-12
		c7  = -0.17892321e-14
		c8  = 0.11112018e-16
		c9  = -0.30994571e-19
	)
	pol := c0 + tempC*(c1+tempC*(c2+tempC*(c3+tempC*(c4+tempC*(c5+tempC*(c6+tempC*(c7+tempC*(c8+tempC*c9))))))))
	es := es0 / math.Pow(pol, 8)
	return es * 100 // hPa -> Pa
}

// ReferenceAtmosphere is the fallback model used above the top of a 1-D
// sounding or when no sounding is supplied: a layered model adapted from
// soypat/gnco's InternationalStandardAtmosphere, standing in for a full
// NRLMSISE-00 evaluation at the altitudes reached here (see DESIGN.md).
func ReferenceAtmosphere(altitudeM, seaLevelTempK float64) (tempK, pressurePa, densityKGM3 float64) {
	const (
		g                = 9.79
		R                = 8.314472
		M                = 28.97e-3
		hydrogenAtomMass = 1.6735575e-27
	)
	var lambda, p0, rho0 float64
	switch {
	case altitudeM > 80_000:
		pressurePa = 1.322e-11
		densityKGM3 = 4 * hydrogenAtomMass * 1e6
		tempK = 178

	case altitudeM < 11_000:
		lambda = -6.5e-3
		p0 = 101325
		rho0 = 1.225
		tempK = seaLevelTempK + lambda*altitudeM
		pressurePa = p0 * math.Pow(tempK/seaLevelTempK, -g*M/(R*lambda))
		densityKGM3 = rho0 * math.Pow(tempK/seaLevelTempK, -g*M/(R*lambda)-1)

	case altitudeM < 25_000:
		p0 = 22552
		rho0 = 0.3629
		tempK = 216.65
		exp := math.Exp(-g * M * (altitudeM - 11000) / (R * tempK))
		pressurePa = p0 * exp
		densityKGM3 = rho0 * exp

	case altitudeM < 47_000:
		lambda = 3e-3
		t0 := 216.65
		p0 = 2481
		rho0 = 0.0399
		tempK = t0 + lambda*(altitudeM-25000)
		pressurePa = p0 * math.Pow(tempK/t0, -g*M/(R*lambda))
		densityKGM3 = rho0 * math.Pow(tempK/t0, -g*M/(R*lambda)-1)

	case altitudeM <= 80_000:
		t0 := 270.0
		lambda = (200 - t0) / (80_000 - 47_000)
		tempK = t0 + lambda*(altitudeM-47_000)
		idx, _ := slices.BinarySearch(_tblAlt, altitudeM)
		if idx >= len(_tblAlt)-1 {
			pressurePa = _tblPressure[len(_tblPressure)-1]
			densityKGM3 = _tblRho[len(_tblRho)-1]
		} else {
			frac := (altitudeM - _tblAlt[idx]) / (_tblAlt[idx+1] - _tblAlt[idx])
			pressurePa = md1.Interp(_tblPressure[idx], _tblPressure[idx+1], frac)
			densityKGM3 = md1.Interp(_tblRho[idx], _tblRho[idx+1], frac)
		}
	}
	return tempK, pressurePa, densityKGM3
}

var (
	_tblAlt      = []float64{4e4, 5e4, 6e4, 7e4, 8e4}
	_tblPressure = []float64{2.87e2, 7.978e1, 2.196e1, 5.2, 1.1}
	_tblRho      = []float64{3.996e-3, 1.027e-3, 3.996e-4, 8.283e-5, 1.846e-5}
)

// ReferenceSampler wraps ReferenceAtmosphere as a Sampler, the sampler
// used when no sounding or grid is supplied at all.
type ReferenceSampler struct {
	SeaLevelTempK float64
	history
}

// NewReferenceSampler returns a ReferenceSampler with a standard 288.15 K
// (15 degC) sea-level temperature, the ISA default.
func NewReferenceSampler() *ReferenceSampler {
	return &ReferenceSampler{SeaLevelTempK: 288.15}
}

func (s *ReferenceSampler) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) Sample {
	epochSec := (tJD - 2451545.0) * 86400
	posECEF := w.ECI2ECEFPos(pos, epochSec)
	llh := w.ECEF2LLH(posECEF)
	tempK, _, rho := ReferenceAtmosphere(llh.HeightM, s.SeaLevelTempK)
	windECI := darkflight.ECI{Vec: rotationVelocity(w, pos)}
	s.push(HistoryEntry{HeightM: llh.HeightM, WindENU: darkflight.ENU{}, DensityKGM3: rho, TemperatureK: tempK})
	return Sample{WindECI: windECI, DensityKGM3: rho, TemperatureK: tempK}
}

var _ Sampler = (*ReferenceSampler)(nil)
