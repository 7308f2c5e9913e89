// Package drag implements the dark-flight drag/lift/mass-loss model
// (component C): hypersonic drag coefficients by shape, a Knudsen-number
// blended drag coefficient across flow regimes, and the piecewise
// mass-loss coefficient bands.
package drag

import "math"

// Shape catalogue entries (spec.md §4.C). A caller supplying an
// uncatalogued shape passes its own float A directly; Lookup is only
// consulted for the three named codes.
const (
	ShapeSphere   = "sphere"
	ShapeCylinder = "cylinder"
	ShapeBrick    = "brick"
)

// Lookup returns the catalogued shape factor A for a named shape and
// whether it was found.
func Lookup(shape string) (a float64, ok bool) {
	switch shape {
	case ShapeSphere:
		return 1.21, true
	case ShapeCylinder:
		return 1.60, true
	case ShapeBrick:
		return 2.7, true
	}
	return 0, false
}

// CdHypersonic returns the shape-dependent high-Mach drag coefficient.
// Catalogued shapes use a constant per spec.md §4.C; an uncatalogued shape
// factor A defaults to the sphere value, the conservative middle ground
// used when a shape isn't otherwise known.
func CdHypersonic(a float64) float64 {
	switch a {
	case 1.21:
		return 2.0
	case 1.60:
		return 1.2
	case 2.7:
		return 1.6
	default:
		return 2.0
	}
}

const (
	gasConstantAir = 287.05 // J/(kg.K), specific gas constant for dry air
	gamma          = 1.4    // ratio of specific heats for air
	sutherlandMu0  = 1.716e-5
	sutherlandT0   = 273.15
	sutherlandS    = 110.4
)

// dynamicViscosity evaluates Sutherland's law for air.
func dynamicViscosity(tempK float64) float64 {
	return sutherlandMu0 * math.Pow(tempK/sutherlandT0, 1.5) * (sutherlandT0 + sutherlandS) / (tempK + sutherlandS)
}

// meanFreePath estimates the atmospheric mean free path from density and
// temperature via kinetic theory, used to form the Knudsen number.
func meanFreePath(rhoA, tempK float64) float64 {
	const moleculeDiameter = 3.7e-10 // m, effective collision diameter of N2/O2
	const boltzmann = 1.380649e-23
	// Standard kinetic-theory mean free path: l = kT / (sqrt(2) * pi * d^2 * P),
	// expressed via density instead of pressure using P = rho*R*T.
	pressure := rhoA * gasConstantAir * tempK
	return boltzmann * tempK / (math.Sqrt2 * math.Pi * moleculeDiameter * moleculeDiameter * pressure)
}

// Coefficient returns (Cd, Re, Kn, Ma) for the given speed, temperature,
// atmospheric density and shape factor, blending free-molecular,
// transition and continuum regimes by Knudsen number (spec.md §4.C). This
// reproduces the original `atm_functions.dragcoeff(v, temp, rho_a, A)`
// call signature exactly (see DESIGN.md).
func Coefficient(v, tempK, rhoA, a float64) (cd, re, kn, ma float64) {
	if v <= 0 || rhoA <= 0 || tempK <= 0 {
		return CdHypersonic(a), 0, math.Inf(1), 0
	}
	soundSpeed := math.Sqrt(gamma * gasConstantAir * tempK)
	ma = v / soundSpeed

	mu := dynamicViscosity(tempK)
	charLength := 2 * math.Sqrt(a/math.Pi) // equivalent diameter from cross-section area A
	re = rhoA * v * charLength / mu

	lambda := meanFreePath(rhoA, tempK)
	kn = lambda / charLength

	cdFreeMolecular := 2.0 // Epstein drag limit for a diffusely-reflecting convex body
	cdContinuum := CdHypersonic(a)

	// Bridging function across the transition regime (Knudsen number
	// between roughly 0.01 and 10), matching the qualitative shape used in
	// meteoroid ablation literature (Bronshten; ReVelle).
	switch {
	case kn > 10:
		cd = cdFreeMolecular
	case kn < 0.01:
		cd = cdContinuum
	default:
		logKn := math.Log10(kn)
		// logKn ranges over [-2, 1]; map to [0,1] bridging weight.
		w := (logKn + 2) / 3
		w = math.Max(0, math.Min(1, w))
		cd = cdContinuum + (cdFreeMolecular-cdContinuum)*w
	}
	return cd, re, kn, ma
}

// MassLossCoefficient returns σ·Cd_hyp, the piecewise-constant mass-loss
// coefficient bands calibrated to bulk density (spec.md §4.C).
func MassLossCoefficient(bulkDensityKGM3, a float64) float64 {
	var sigma float64
	switch {
	case bulkDensityKGM3 > 5000:
		sigma = 0.07e-6
	case bulkDensityKGM3 > 2500:
		sigma = 0.014e-6
	case bulkDensityKGM3 > 1500:
		sigma = 0.042e-6
	default:
		sigma = 0.1e-6
	}
	return sigma * CdHypersonic(a)
}
