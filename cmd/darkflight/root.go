package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfn-toolkit/darkflight/config"
	"github.com/dfn-toolkit/darkflight/logx"
)

// runErr wraps a failure with the error kind spec.md §7 classifies it
// under, so main's exitCodeFor can map it to the right process exit code.
type runErr struct {
	kind logx.ErrorKind
	err  error
}

func (e *runErr) Error() string { return e.err.Error() }
func (e *runErr) Unwrap() error { return e.err }
func (e *runErr) ExitCode() int { return e.kind.ExitCode() }

func newRootCmd() *cobra.Command {
	var flags struct {
		event, wind, velocity, shape, ground, keyword string
		mass, density, massErr, shapeErr, windErr, lift float64
		monteCarlo                                       int
		noKML, geoJSON                                   bool
		logLevel                                          string
	}

	cmd := &cobra.Command{
		Use:   "darkflight",
		Short: "Propagate a meteoroid through dark flight to ground impact.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logx.Logger = logx.New(flags.logLevel, "stdout")

			run := config.Run{
				EventFile:       flags.event,
				WindFile:        flags.wind,
				Velocity:        flags.velocity,
				MassKG:          flags.mass,
				BulkDensityKGM3: flags.density,
				Shape:           flags.shape,
				NoKML:           flags.noKML,
				GeoJSON:         flags.geoJSON,
				Keyword:         flags.keyword,
				MonteCarlo:      flags.monteCarlo,
				MassErr:         flags.massErr,
				ShapeErr:        flags.shapeErr,
				WindErr:         flags.windErr,
				LiftCoeff:       flags.lift,
			}
			g, err := config.ParseGround(flags.ground)
			if err != nil {
				return &runErr{logx.KindArgumentInvalid, err}
			}
			run.Ground = g

			if err := run.Validate(); err != nil {
				return &runErr{logx.KindArgumentInvalid, err}
			}

			stem := strings.TrimSuffix(filepath.Base(run.EventFile), filepath.Ext(run.EventFile))
			seed := uint64(time.Now().UnixNano())

			logx.Logger.WithFields(map[string]interface{}{
				"event": run.EventFile, "stem": stem, "velocity": run.Velocity,
				"monte_carlo": run.MonteCarlo,
			}).Info("darkflight run configured")

			return executeRun(run, stem, seed)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.event, "event", "e", "", "event file (required)")
	f.StringVarP(&flags.wind, "wind", "w", "", "wind file")
	f.StringVarP(&flags.velocity, "velocity", "v", "", "velocity model: eks, grits, raw")
	f.Float64VarP(&flags.mass, "mass", "m", 0, "nominal mass (kg)")
	f.Float64VarP(&flags.density, "density", "d", config.DefaultBulkDensityKGM3, "bulk density (kg/m^3)")
	f.StringVarP(&flags.shape, "shape", "s", "s", "shape: s, c, b, or a literal float")
	f.StringVarP(&flags.ground, "ground", "g", "a", "ground height (m) or \"a\" for auto (SRTM)")
	f.BoolVarP(&flags.noKML, "no-kml", "k", false, "disable KML output")
	f.BoolVarP(&flags.geoJSON, "geojson", "J", false, "emit GeoJSON alongside KML")
	f.StringVarP(&flags.keyword, "keyword", "K", "", "keyword appended to output directory")
	f.IntVar(&flags.monteCarlo, "mc", 0, "Monte-Carlo sample count")
	f.Float64Var(&flags.massErr, "me", 0, "mass error budget")
	f.Float64Var(&flags.shapeErr, "se", 0, "shape error budget")
	f.Float64Var(&flags.windErr, "we", 0, "wind-speed error budget")
	f.Float64VarP(&flags.lift, "lift", "l", 0, "lift coefficient (darkflight-lift variant)")
	f.StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn, error")

	return cmd
}
