package ensemble

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
)

// ReadTriangulationECSV parses the tabular, `.ecsv`-style event file
// spec.md §6 describes: a header comment block (`# key: value` lines,
// ending at the first non-comment line) carrying the optional radiant
// metadata, followed by a CSV body with columns `datetime, X_geo, Y_geo,
// Z_geo` and, optionally, `DX_DT_geo, DY_DT_geo, DZ_DT_geo`, one of
// `D_DT_EKS|D_DT_fitted|D_DT_geo`, and `cross_track_error`.
func ReadTriangulationECSV(r io.Reader) ([]TriangulationRow, TriangulationMetadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, TriangulationMetadata{}, err
	}

	meta := parseECSVMeta(string(raw))
	body := stripECSVMetaHeader(string(raw))

	cr := csv.NewReader(strings.NewReader(body))
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", darkflight.ErrInputMalformed, err)
	}
	col := columnIndex(header)

	datetimeIdx, ok := col["datetime"]
	if !ok {
		return nil, meta, fmt.Errorf("%w: missing datetime column", darkflight.ErrInputMalformed)
	}
	xIdx, xOK := col["x_geo"]
	yIdx, yOK := col["y_geo"]
	zIdx, zOK := col["z_geo"]
	if !xOK || !yOK || !zOK {
		return nil, meta, fmt.Errorf("%w: missing X_geo/Y_geo/Z_geo columns", darkflight.ErrInputMalformed)
	}
	dxIdx, hasVel1 := col["dx_dt_geo"]
	dyIdx, hasVel2 := col["dy_dt_geo"]
	dzIdx, hasVel3 := col["dz_dt_geo"]
	hasVel := hasVel1 && hasVel2 && hasVel3

	speedIdx, speedOK := col["d_dt_eks"]
	if !speedOK {
		speedIdx, speedOK = col["d_dt_fitted"]
	}
	if !speedOK {
		speedIdx, speedOK = col["d_dt_geo"]
	}
	crossTrackIdx, hasCrossTrack := col["cross_track_error"]

	var rows []TriangulationRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, meta, fmt.Errorf("%w: %v", darkflight.ErrInputMalformed, err)
		}

		t, err := time.Parse(time.RFC3339, rec[datetimeIdx])
		if err != nil {
			return nil, meta, fmt.Errorf("%w: malformed datetime %q", darkflight.ErrInputMalformed, rec[datetimeIdx])
		}
		row := TriangulationRow{
			JD: julianDateFromTime(t),
			PosECEF: md3.Vec{
				X: mustFloat(rec[xIdx]), Y: mustFloat(rec[yIdx]), Z: mustFloat(rec[zIdx]),
			},
		}
		if hasVel {
			v := md3.Vec{X: mustFloat(rec[dxIdx]), Y: mustFloat(rec[dyIdx]), Z: mustFloat(rec[dzIdx])}
			row.VelECEF = &v
		}
		if speedOK {
			row.SpeedMS = mustFloat(rec[speedIdx])
		}
		if hasCrossTrack {
			row.CrossTrackErrM = mustFloat(rec[crossTrackIdx])
		}
		rows = append(rows, row)
	}
	return rows, meta, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseECSVMeta reads `# triangulation_ra_ecef_inf: 123.4` style comment
// lines into TriangulationMetadata; degrees are converted to radians.
func parseECSVMeta(content string) TriangulationMetadata {
	var meta TriangulationMetadata
	var haveRA, haveDec bool
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "#")
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(strings.ToLower(parts[0]))
		val, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		switch key {
		case "triangulation_ra_ecef_inf":
			meta.RAeciInfRad = val * math.Pi / 180
			haveRA = true
		case "triangulation_dec_ecef_inf":
			meta.DecEciInfRad = val * math.Pi / 180
			haveDec = true
		case "triangulation_ra_eci_inf_err":
			meta.RAeciInfErrRad = val * math.Pi / 180
		case "triangulation_dec_eci_inf_err":
			meta.DecEciInfErrRad = val * math.Pi / 180
		}
	}
	meta.HasRadiant = haveRA && haveDec
	return meta
}

// stripECSVMetaHeader drops leading `#`-prefixed lines so the remainder
// parses cleanly as CSV.
func stripECSVMetaHeader(content string) string {
	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "#") {
		i++
	}
	return strings.Join(lines[i:], "\n")
}
