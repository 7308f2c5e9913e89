package result

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Run bundles every particle's rows for one ensemble, ready for output.
type Run struct {
	Meta         Metadata
	ParticleRows [][]Row
}

// NewRun stamps a fresh run ID and timestamp, per spec.md §4.I's "run
// timestamp" and SPEC_FULL.md's `github.com/google/uuid` run ID.
func NewRun(atmosphereSource, shapeCode string, massErr, shapeErr, windErr float64, monteCarlo bool, now time.Time) Run {
	return Run{
		Meta: Metadata{
			RunID:            uuid.NewString(),
			RunTimestampUTC:  now.UTC().Format(time.RFC3339),
			AtmosphereSource: atmosphereSource,
			ShapeCode:        shapeCode,
			MassErrorBudget:  massErr,
			ShapeErrorBudget: shapeErr,
			WindErrorBudget:  windErr,
			MonteCarlo:       monteCarlo,
		},
	}
}

// AddParticle appends one particle's rows to the run.
func (r *Run) AddParticle(rows []Row) {
	r.ParticleRows = append(r.ParticleRows, rows)
}

func (r *Run) flatRows() []Row {
	n := 0
	for _, p := range r.ParticleRows {
		n += len(p)
	}
	out := make([]Row, 0, n)
	for _, p := range r.ParticleRows {
		out = append(out, p...)
	}
	return out
}

// WriteTo writes the run into dir, choosing the ECSV or FITS writer per
// spec.md §6's 1000-particle threshold. The file is named
// `<stem>_darkflight_<tag>_run<runIndex>` with the `.ecsv`/`.fits`
// extension of the chosen format, and its path is returned.
func WriteTo(dir, stem, tag string, runIndex int, r Run) (string, error) {
	rows := r.flatRows()
	ext := chooseWriter(len(r.ParticleRows))
	name := fmt.Sprintf("%s_darkflight_%s_run%d.%s", stem, tag, runIndex, ext)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var writeErr error
	if ext == "fits" {
		writeErr = WriteFITS(f, r.Meta, rows)
	} else {
		writeErr = WriteECSV(f, r.Meta, rows)
	}
	if writeErr != nil {
		return "", writeErr
	}
	return path, nil
}
