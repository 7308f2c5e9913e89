// Package result implements the dark-flight result assembler (component
// I): a per-sample tabular record, an ECSV-style CSV writer for single
// trajectories and ensembles up to 1000 particles, and a FITS binary
// table writer for larger ensembles.
package result

import (
	"math"
	"time"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/dynamics"
)

// fitsThreshold is the particle count above which the writer switches
// from ECSV-style CSV to a FITS binary table (spec.md §6: "> 1000
// particles").
const fitsThreshold = 1000

// Row is one emitted sample's record (spec.md §4.I): ISO datetime,
// Julian date, weight, initial mass, current mass, bulk density, shape,
// mass-loss coefficient, (lat, lon, height), ECEF position, ECEF
// velocity components and speed.
type Row struct {
	DatetimeUTC     string
	JD              float64
	Weight          float64
	InitialMassKG   float64
	MassKG          float64
	BulkDensityKGM3 float64
	Shape           string
	MassLossCoeff   float64
	LatDeg, LonDeg  float64
	HeightM         float64
	PosECEF         md3.Vec
	VelECEF         md3.Vec
	SpeedMS         float64
}

// Metadata carries the run-level fields spec.md §4.I calls out: the
// atmosphere source filename, requested shape code, and (for Monte-Carlo
// runs) the shape/mass/wind-speed error budgets, plus the run timestamp.
type Metadata struct {
	RunID             string
	RunTimestampUTC   string
	AtmosphereSource  string
	ShapeCode         string
	MassErrorBudget   float64
	ShapeErrorBudget  float64
	WindErrorBudget   float64
	MonteCarlo        bool
}

// BuildRows converts one particle's samples (plus its invariant
// initial mass) into a Row per sample, the shape spec.md §4.I names.
func BuildRows(world *darkflight.World, initialMassKG float64, shape string, weight float64, samples []dynamics.Sample) []Row {
	rows := make([]Row, len(samples))
	for i, s := range samples {
		epochSec := (s.TimeJD - 2451545.0) * 86400
		posECEF, velECEF := world.ECI2ECEF(
			darkflight.ECI{Vec: s.State.Pos}, darkflight.ECI{Vec: s.State.Vel}, epochSec)
		llh := world.ECEF2LLH(posECEF)

		rows[i] = Row{
			DatetimeUTC:     julianDateToISO(s.TimeJD),
			JD:              s.TimeJD,
			Weight:          weight,
			InitialMassKG:   initialMassKG,
			MassKG:          s.State.MassKG,
			BulkDensityKGM3: s.State.BulkDensityKGM3,
			Shape:           shape,
			MassLossCoeff:   s.State.MassLossCoeff,
			LatDeg:          llh.LatRad * 180 / math.Pi,
			LonDeg:          llh.LonRad * 180 / math.Pi,
			HeightM:         llh.HeightM,
			PosECEF:         posECEF.Vec,
			VelECEF:         velECEF.Vec,
			SpeedMS:         md3.Norm(velECEF.Vec),
		}
	}
	return rows
}

// julianDateToISO converts a Julian date to an ISO-8601 UTC timestamp.
func julianDateToISO(jd float64) string {
	const unixEpochJD = 2440587.5
	unixSec := (jd - unixEpochJD) * 86400
	return time.Unix(int64(unixSec), int64(math.Mod(unixSec, 1)*1e9)).UTC().Format(time.RFC3339)
}

// chooseWriter selects the ECSV or FITS writer per spec.md §6's
// `fileType == 'fits'` threshold: more than 1000 particles (rows from
// more than 1000 distinct particles, not samples) switches to FITS.
func chooseWriter(particleCount int) string {
	if particleCount > fitsThreshold {
		return "fits"
	}
	return "ecsv"
}
