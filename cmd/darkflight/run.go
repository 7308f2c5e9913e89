package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/atmosphere"
	"github.com/dfn-toolkit/darkflight/config"
	"github.com/dfn-toolkit/darkflight/drag"
	"github.com/dfn-toolkit/darkflight/ensemble"
	"github.com/dfn-toolkit/darkflight/logx"
	"github.com/dfn-toolkit/darkflight/result"
	"github.com/dfn-toolkit/darkflight/runner"
	"github.com/dfn-toolkit/darkflight/terrain"
)

// executeRun wires the ambient configuration into the core components:
// build an ensemble.Source from the event file, an atmosphere.Sampler
// from the wind file (or the reference model), a terrain.Source from the
// ground flag, then run the ensemble and write the result table.
func executeRun(cfg config.Run, stem string, rootSeed uint64) error {
	world := darkflight.NewEarth()

	src, err := openEventSource(cfg)
	if err != nil {
		return err
	}

	atm, err := openAtmosphere(cfg)
	if err != nil {
		return err
	}

	ground, err := openGround(cfg)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(int64(rootSeed)))
	particles, err := src.Build(world, rng)
	if err != nil {
		return &runErr{logx.KindInputMalformed, err}
	}
	if len(particles) == 0 {
		return &runErr{logx.KindArgumentInvalid, fmt.Errorf("no particles built from %s", cfg.EventFile)}
	}

	runCfg := runner.Config{
		World:          world,
		Atmosphere:     atm,
		Ground:         ground,
		CLift:          cfg.LiftCoeff,
		Workers:        workerCount(),
		FullTrajectory: len(particles) == 1,
		RootSeed:       rootSeed,
	}

	results, err := runner.Run(context.Background(), runCfg, particles)
	if err != nil {
		return &runErr{logx.KindArgumentInvalid, err}
	}

	run := result.NewRun(cfg.WindFile, cfg.Shape, cfg.MassErr, cfg.ShapeErr, cfg.WindErr, cfg.MonteCarlo > 0, time.Now())
	for _, r := range results {
		if r.Err != nil {
			logx.Logger.WithError(r.Err).Warnf("particle %d failed, excluded from results", r.Index)
			continue
		}
		rows := result.BuildRows(world, r.Particle.MassKG, r.Particle.Shape, r.Particle.Weight, r.Samples)
		run.AddParticle(rows)
		logx.Logger.WithFields(map[string]interface{}{
			"particle": r.Index, "termination": r.Reason.String(),
		}).Debug("particle propagated")
	}

	tag := cfg.Keyword
	if tag == "" {
		tag = "run"
	}
	path, err := result.WriteTo(".", stem, tag, 1, run)
	if err != nil {
		return &runErr{logx.KindArgumentInvalid, err}
	}
	logx.Logger.WithField("path", path).Info("wrote result table")
	return nil
}

func workerCount() int {
	if n := os.Getenv("DARKFLIGHT_WORKERS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			return v
		}
	}
	return 4
}

func openEventSource(cfg config.Run) (ensemble.Source, error) {
	f, err := os.Open(cfg.EventFile)
	if err != nil {
		return nil, &runErr{logx.KindArgumentInvalid, err}
	}
	defer f.Close()

	rows, meta, err := ensemble.ReadTriangulationECSV(f)
	if err != nil {
		return nil, &runErr{logx.KindInputMalformed, err}
	}

	model := ensemble.VelocityModel(cfg.Velocity)
	resolvedA := shapeToA(cfg.Shape)
	massLoss := drag.MassLossCoefficient(cfg.BulkDensityKGM3, resolvedA)

	var masses []float64
	if cfg.MassKG > 0 {
		masses = []float64{cfg.MassKG}
	}

	mc := ensemble.DefaultMCConfig(cfg.MonteCarlo)
	if cfg.MassErr > 0 {
		mc.MassEpsilon = cfg.MassErr
	}
	if cfg.ShapeErr > 0 {
		mc.ShapeSigma = cfg.ShapeErr
	}

	return ensemble.TriangulationSource{
		Rows: rows, Meta: meta, Model: model, Masses: masses,
		BulkDensityKGM3: cfg.BulkDensityKGM3, Shape: shapeName(cfg.Shape), ShapeA: resolvedA,
		MassLossCoeff: massLoss, MC: mc,
	}, nil
}

// openAtmosphere builds the atmosphere.Sampler the run propagates through.
// When cfg.WindErr > 0 it returns an ensemble.WindJitterFactory instead of
// a plain sampler: runner.Run type-asserts for atmosphere.PerRealizationSampler
// and draws a fresh, RootSeed-derived wind-error realisation per particle
// (spec.md §4.G/§8), so no wall-clock-seeded RNG is ever constructed here.
func openAtmosphere(cfg config.Run) (atmosphere.Sampler, error) {
	reference := atmosphere.NewReferenceSampler()
	var base atmosphere.Sampler = reference
	var sounding atmosphere.Sounding
	haveSounding := false
	if cfg.WindFile != "" {
		f, err := os.Open(cfg.WindFile)
		if err != nil {
			return nil, &runErr{logx.KindArgumentInvalid, err}
		}
		defer f.Close()
		s, err := atmosphere.ReadSoundingCSV(f)
		if err != nil {
			return nil, &runErr{logx.KindInputMalformed, err}
		}
		sampler, err := atmosphere.NewSoundingSampler(s, reference)
		if err != nil {
			return nil, &runErr{logx.KindInputMalformed, err}
		}
		base, sounding, haveSounding = sampler, s, true
	}
	if cfg.WindErr > 0 && haveSounding {
		factory, err := ensemble.NewSoundingWindJitterFactory(sounding, reference, cfg.WindErr)
		if err != nil {
			return nil, &runErr{logx.KindInputMalformed, err}
		}
		return factory, nil
	}
	return base, nil
}

func openGround(cfg config.Run) (terrain.Source, error) {
	if cfg.Ground.Auto {
		dir := os.Getenv("DARKFLIGHT_SRTM_DIR")
		if dir == "" {
			dir = "."
		}
		cache := terrain.NewSRTMCache(dir)
		cache.OnVoid = func(lat, lon float64) {
			logx.Logger.WithFields(map[string]interface{}{"lat": lat, "lon": lon}).
				Warn("SRTM void at terminal position, substituting ground = 0 m")
		}
		return cache, nil
	}
	return terrain.ConstantSource{HeightM: cfg.Ground.ConstantM}, nil
}

func shapeName(code string) string {
	switch code {
	case "s":
		return drag.ShapeSphere
	case "c":
		return drag.ShapeCylinder
	case "b":
		return drag.ShapeBrick
	default:
		return code
	}
}

func shapeToA(code string) float64 {
	if a, ok := drag.Lookup(shapeName(code)); ok {
		return a
	}
	if v, err := strconv.ParseFloat(code, 64); err == nil {
		return v
	}
	return 1.21
}
