package result

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/dynamics"
)

func sampleSamples() []dynamics.Sample {
	return []dynamics.Sample{
		{
			TimeJD: 2451545.0,
			State: dynamics.State{
				Pos:             md3.Vec{X: 6378137 + 1000, Y: 0, Z: 0},
				Vel:             md3.Vec{X: 0, Y: 100, Z: 0},
				MassKG:          1.0,
				BulkDensityKGM3: 3500,
				ShapeA:          1.21,
				MassLossCoeff:   1e-8,
			},
		},
	}
}

func TestBuildRowsProducesOneRowPerSample(t *testing.T) {
	world := darkflight.NewEarth()
	rows := BuildRows(world, 1.0, "sphere", 1.0, sampleSamples())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Shape != "sphere" {
		t.Errorf("shape = %q, want sphere", rows[0].Shape)
	}
}

func TestWriteECSVContainsHeaderAndMeta(t *testing.T) {
	world := darkflight.NewEarth()
	rows := BuildRows(world, 1.0, "sphere", 1.0, sampleSamples())
	meta := Metadata{RunID: "test-run", AtmosphereSource: "sounding.csv", ShapeCode: "s"}

	var buf bytes.Buffer
	if err := WriteECSV(&buf, meta, rows); err != nil {
		t.Fatalf("WriteECSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "%ECSV") {
		t.Error("missing ECSV header marker")
	}
	if !strings.Contains(out, "test-run") {
		t.Error("missing run ID in metadata header")
	}
	if !strings.Contains(out, "datetime") {
		t.Error("missing column header row")
	}
}

func TestChooseWriterThreshold(t *testing.T) {
	if chooseWriter(1000) != "ecsv" {
		t.Error("1000 particles should still use ecsv")
	}
	if chooseWriter(1001) != "fits" {
		t.Error("1001 particles should switch to fits")
	}
}
