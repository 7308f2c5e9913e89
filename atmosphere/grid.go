package atmosphere

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
)

// GridSnapshot is one time slice of a 4-D gridded forecast: a regular
// lat/lon horizontal grid, each cell carrying a vertical profile at
// LevelsM (shared across cells, matching the wind file's `z, lat, lon,
// uvmet, wa, tk, p, rh` variables, spec.md §6).
type GridSnapshot struct {
	TimeJD  float64
	LatRad  []float64 // ascending, length NLat
	LonRad  []float64 // ascending, length NLon
	LevelsM []float64 // ascending, length NLev

	// indexed [lat][lon][level]
	U, V, W    [][][]float64
	TempK      [][][]float64
	PressurePa [][][]float64
	// RelHumidity is a 0-1 fraction (spec.md §3), not a percent.
	RelHumidity [][][]float64
}

// GridDataset is a sequence of snapshots ordered by TimeJD, the in-memory
// form of a gridded forecast (spec.md §6 "gridded forecast file"; a
// NetCDF-backed loader is a documented extension point, see SPEC_FULL.md §6).
type GridDataset struct {
	Snapshots []GridSnapshot
}

// GridSampler samples a gridded forecast: nearest-time snapshot selection
// (no blending between the two bracketing times), nearest horizontal
// cell search, vertical interpolation per column, bilinear blend across
// the bracketing 2x2 horizontal cell, and NaN (below-lowest-level)
// fallback to the most recent valid sample (spec.md §4.B rule 4).
type GridSampler struct {
	dataset  GridDataset
	fallback Sampler
	history
}

// NewGridSampler pairs a gridded dataset with a fallback sampler used when
// the dataset is empty, or when the query lies below the lowest level and
// no earlier sample has been recorded. A query time outside the dataset's
// range uses the nearest snapshot, not the fallback.
func NewGridSampler(d GridDataset, fallback Sampler) *GridSampler {
	return &GridSampler{dataset: d, fallback: fallback}
}

func (g *GridSampler) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) Sample {
	epochSec := (tJD - 2451545.0) * 86400
	posECEF := w.ECI2ECEFPos(pos, epochSec)
	llh := w.ECEF2LLH(posECEF)

	snap, ok := g.nearestSnapshot(tJD)
	if !ok {
		return g.fallback.Sample(w, pos, tJD)
	}

	u, v, wUp, tempK, rh, ok := bilinearColumn(snap, llh.LatRad, llh.LonRad, llh.HeightM)
	if !ok {
		if last, haveLast := g.last(); haveLast {
			windECEF := darkflight.ENU2ECEFVec(llh, last.WindENU)
			windECI := darkflight.ECI{Vec: md3.Add(md3.MulMatVecTrans(w.TEI(epochSec), windECEF.Vec), rotationVelocity(w, pos))}
			return Sample{WindECI: windECI, DensityKGM3: last.DensityKGM3, TemperatureK: last.TemperatureK}
		}
		return g.fallback.Sample(w, pos, tJD)
	}

	windENU := darkflight.ENU{Vec: md3.Vec{X: u, Y: v, Z: wUp}}
	// Pressure isn't separately needed by the dynamics function; density is
	// derived the same way the 1-D sounding does, from temperature/pressure/
	// humidity at the query point.
	pressPa := bilinearField(snap, snap.PressurePa, llh.LatRad, llh.LonRad, llh.HeightM)
	rho := densityFromStateVars(tempK, pressPa, rh)

	windECEF := darkflight.ENU2ECEFVec(llh, windENU)
	windECI := darkflight.ECI{Vec: md3.Add(md3.MulMatVecTrans(w.TEI(epochSec), windECEF.Vec), rotationVelocity(w, pos))}

	g.push(HistoryEntry{HeightM: llh.HeightM, WindENU: windENU, DensityKGM3: rho, TemperatureK: tempK})
	return Sample{WindECI: windECI, DensityKGM3: rho, TemperatureK: tempK}
}

func (g *GridSampler) nearestSnapshot(tJD float64) (GridSnapshot, bool) {
	if len(g.dataset.Snapshots) == 0 {
		return GridSnapshot{}, false
	}
	best := 0
	bestDist := math.Abs(g.dataset.Snapshots[0].TimeJD - tJD)
	for i, s := range g.dataset.Snapshots {
		d := math.Abs(s.TimeJD - tJD)
		if d < bestDist {
			bestDist, best = d, i
		}
	}
	return g.dataset.Snapshots[best], true
}

// nearestCellIndices returns the horizontal grid indices bracketing
// (latRad, lonRad): the cell below/equal and above each axis.
func nearestCellIndices(axis []float64, q float64) (lo, hi int, frac float64) {
	if len(axis) == 1 {
		return 0, 0, 0
	}
	dists := make([]float64, len(axis))
	for i, v := range axis {
		dists[i] = math.Abs(v - q)
	}
	nearest := floats.MinIdx(dists)
	lo, hi = nearest, nearest
	switch {
	case q < axis[nearest] && nearest > 0:
		lo = nearest - 1
		hi = nearest
	case q >= axis[nearest] && nearest < len(axis)-1:
		lo = nearest
		hi = nearest + 1
	default:
		return nearest, nearest, 0
	}
	span := axis[hi] - axis[lo]
	if span == 0 {
		return lo, hi, 0
	}
	frac = (q - axis[lo]) / span
	return lo, hi, frac
}

// verticalInterp linearly interpolates a column to heightM, returning
// (value, false) if heightM is below the lowest level (the "NaN" case
// spec.md §4.B rule 4 calls out).
func verticalInterp(levels, values []float64, heightM float64) (float64, bool) {
	if len(levels) == 0 || heightM < levels[0] {
		return 0, false
	}
	if heightM >= levels[len(levels)-1] {
		return values[len(values)-1], true
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(levels, values); err != nil {
		return 0, false
	}
	return pl.Predict(heightM), true
}

// bilinearField interpolates one scalar field at (latRad, lonRad, heightM)
// using the bracketing 2x2 horizontal cell, each column first reduced to
// the query height by verticalInterp.
func bilinearField(snap GridSnapshot, field [][][]float64, latRad, lonRad, heightM float64) float64 {
	iLo, iHi, fLat := nearestCellIndices(snap.LatRad, latRad)
	jLo, jHi, fLon := nearestCellIndices(snap.LonRad, lonRad)
	v00, ok00 := verticalInterp(snap.LevelsM, field[iLo][jLo], heightM)
	v01, ok01 := verticalInterp(snap.LevelsM, field[iLo][jHi], heightM)
	v10, ok10 := verticalInterp(snap.LevelsM, field[iHi][jLo], heightM)
	v11, ok11 := verticalInterp(snap.LevelsM, field[iHi][jHi], heightM)
	if !ok00 || !ok01 || !ok10 || !ok11 {
		return math.NaN()
	}
	top := v00*(1-fLon) + v01*fLon
	bot := v10*(1-fLon) + v11*fLon
	return top*(1-fLat) + bot*fLat
}

// bilinearColumn blends u, v, w, temperature and humidity together so the
// NaN-below-lowest-level check only needs to happen once.
func bilinearColumn(snap GridSnapshot, latRad, lonRad, heightM float64) (u, v, w, tempK, rh float64, ok bool) {
	u = bilinearField(snap, snap.U, latRad, lonRad, heightM)
	v = bilinearField(snap, snap.V, latRad, lonRad, heightM)
	w = bilinearField(snap, snap.W, latRad, lonRad, heightM)
	tempK = bilinearField(snap, snap.TempK, latRad, lonRad, heightM)
	rh = bilinearField(snap, snap.RelHumidity, latRad, lonRad, heightM)
	if math.IsNaN(u) || math.IsNaN(v) || math.IsNaN(w) || math.IsNaN(tempK) || math.IsNaN(rh) {
		return 0, 0, 0, 0, 0, false
	}
	return u, v, w, tempK, rh, true
}

var _ Sampler = (*GridSampler)(nil)
