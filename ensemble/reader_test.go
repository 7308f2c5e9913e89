package ensemble

import (
	"strings"
	"testing"
)

func TestReadTriangulationECSVParsesRowsAndMetadata(t *testing.T) {
	const data = "# triangulation_ra_ecef_inf: 45.0\n" +
		"# triangulation_dec_ecef_inf: -10.0\n" +
		"datetime,X_geo,Y_geo,Z_geo,DX_DT_geo,DY_DT_geo,DZ_DT_geo,D_DT_geo,cross_track_error\n" +
		"2021-01-01T00:00:00Z,100,200,300,1,2,3,7000,50\n" +
		"2021-01-01T00:00:01Z,101,202,303,1,2,3,7000,50\n"

	rows, meta, err := ReadTriangulationECSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTriangulationECSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].VelECEF == nil {
		t.Fatal("expected velocity columns to populate VelECEF")
	}
	if !meta.HasRadiant {
		t.Error("expected radiant metadata to be detected")
	}
}

func TestReadTriangulationECSVMissingColumns(t *testing.T) {
	const data = "datetime,X_geo,Y_geo\n2021-01-01T00:00:00Z,100,200\n"
	if _, _, err := ReadTriangulationECSV(strings.NewReader(data)); err == nil {
		t.Error("expected an error for a missing Z_geo column")
	}
}
