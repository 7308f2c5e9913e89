package result

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ecsvHeader is the column order WriteECSV writes, matching Row's field
// order per spec.md §4.I.
var ecsvHeader = []string{
	"datetime", "jd", "weight", "mass0_kg", "mass_kg", "rho_bulk_kgm3",
	"shape", "c_ml", "lat_deg", "lon_deg", "height_m",
	"x_geo", "y_geo", "z_geo", "dx_geo_dt", "dy_geo_dt", "dz_geo_dt", "speed_ms",
}

// WriteECSV writes rows as an astropy ascii.ecsv-shaped CSV: a YAML-ish
// `#`-prefixed header comment block carrying meta, then a plain CSV body
// (spec.md §6 `<stem>_darkflight_<tag>_run<j>.ecsv`).
func WriteECSV(w io.Writer, meta Metadata, rows []Row) error {
	if err := writeECSVMetaHeader(w, meta); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ecsvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(rowToRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeECSVMetaHeader(w io.Writer, meta Metadata) error {
	lines := []string{
		"# %ECSV 1.0",
		"# ---",
		"# meta:",
		"#   run_id: " + meta.RunID,
		"#   run_timestamp_utc: " + meta.RunTimestampUTC,
		"#   atmosphere_source: " + meta.AtmosphereSource,
		"#   shape_code: " + meta.ShapeCode,
	}
	if meta.MonteCarlo {
		lines = append(lines,
			"#   mass_error_budget: "+strconv.FormatFloat(meta.MassErrorBudget, 'g', -1, 64),
			"#   shape_error_budget: "+strconv.FormatFloat(meta.ShapeErrorBudget, 'g', -1, 64),
			"#   wind_error_budget: "+strconv.FormatFloat(meta.WindErrorBudget, 'g', -1, 64),
		)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func rowToRecord(r Row) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		r.DatetimeUTC, f(r.JD), f(r.Weight), f(r.InitialMassKG), f(r.MassKG),
		f(r.BulkDensityKGM3), r.Shape, f(r.MassLossCoeff),
		f(r.LatDeg), f(r.LonDeg), f(r.HeightM),
		f(r.PosECEF.X), f(r.PosECEF.Y), f(r.PosECEF.Z),
		f(r.VelECEF.X), f(r.VelECEF.Y), f(r.VelECEF.Z), f(r.SpeedMS),
	}
}
