package result

import (
	"io"

	"github.com/astrogo/fitsio"
)

// fitsRow mirrors Row in a flat, fitsio-tag-addressable shape: fitsio
// writes binary table rows by reflecting over tagged struct fields.
type fitsRow struct {
	JD              float64 `fits:"jd"`
	Weight          float64 `fits:"weight"`
	InitialMassKG   float64 `fits:"mass0_kg"`
	MassKG          float64 `fits:"mass_kg"`
	BulkDensityKGM3 float64 `fits:"rho_bulk_kgm3"`
	MassLossCoeff   float64 `fits:"c_ml"`
	LatDeg          float64 `fits:"lat_deg"`
	LonDeg          float64 `fits:"lon_deg"`
	HeightM         float64 `fits:"height_m"`
	XGeo            float64 `fits:"x_geo"`
	YGeo            float64 `fits:"y_geo"`
	ZGeo            float64 `fits:"z_geo"`
	DXGeoDT         float64 `fits:"dx_geo_dt"`
	DYGeoDT         float64 `fits:"dy_geo_dt"`
	DZGeoDT         float64 `fits:"dz_geo_dt"`
	SpeedMS float64 `fits:"speed_ms"`
}

var fitsColumns = []fitsio.Column{
	{Name: "jd", Format: "D"},
	{Name: "weight", Format: "D"},
	{Name: "mass0_kg", Format: "D"},
	{Name: "mass_kg", Format: "D"},
	{Name: "rho_bulk_kgm3", Format: "D"},
	{Name: "c_ml", Format: "D"},
	{Name: "lat_deg", Format: "D"},
	{Name: "lon_deg", Format: "D"},
	{Name: "height_m", Format: "D"},
	{Name: "x_geo", Format: "D"},
	{Name: "y_geo", Format: "D"},
	{Name: "z_geo", Format: "D"},
	{Name: "dx_geo_dt", Format: "D"},
	{Name: "dy_geo_dt", Format: "D"},
	{Name: "dz_geo_dt", Format: "D"},
	{Name: "speed_ms", Format: "D"},
}

// WriteFITS writes rows as a FITS binary table, the output format ensembles
// over 1000 particles switch to (spec.md §6 `<stem>_darkflight_<tag>_run<j>.fits`).
// Run metadata is carried in the primary HDU's header cards rather than the
// table, matching fitsio's convention of one metadata HDU plus one data HDU.
func WriteFITS(w io.Writer, meta Metadata, rows []Row) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	primary, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	primary.Header().Set("RUNID", meta.RunID, "run identifier")
	primary.Header().Set("RUNTS", meta.RunTimestampUTC, "run timestamp UTC")
	primary.Header().Set("ATMSRC", meta.AtmosphereSource, "atmosphere source file")
	primary.Header().Set("SHAPE", meta.ShapeCode, "requested shape code")
	if meta.MonteCarlo {
		primary.Header().Set("MASSERR", meta.MassErrorBudget, "mass error budget")
		primary.Header().Set("SHAPEERR", meta.ShapeErrorBudget, "shape error budget")
		primary.Header().Set("WINDERR", meta.WindErrorBudget, "wind-speed error budget")
	}
	if err := f.Write(primary); err != nil {
		return err
	}

	table, err := fitsio.NewTable("RESULTS", fitsColumns, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer table.Close()

	for _, r := range rows {
		fr := fitsRow{
			JD: r.JD, Weight: r.Weight, InitialMassKG: r.InitialMassKG, MassKG: r.MassKG,
			BulkDensityKGM3: r.BulkDensityKGM3, MassLossCoeff: r.MassLossCoeff,
			LatDeg: r.LatDeg, LonDeg: r.LonDeg, HeightM: r.HeightM,
			XGeo: r.PosECEF.X, YGeo: r.PosECEF.Y, ZGeo: r.PosECEF.Z,
			DXGeoDT: r.VelECEF.X, DYGeoDT: r.VelECEF.Y, DZGeoDT: r.VelECEF.Z,
			SpeedMS: r.SpeedMS,
		}
		if err := table.Write(&fr); err != nil {
			return err
		}
	}
	return f.Write(table)
}
