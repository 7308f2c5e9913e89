package ensemble

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/ini.v1"

	"github.com/dfn-toolkit/darkflight"
	"github.com/dfn-toolkit/darkflight/drag"
)

// Met holds the `met` section of a configuration-mode input file (spec.md
// §6): scalar initial parameters in degrees/kg/kg-per-m3.
type Met struct {
	LatDeg, LonDeg, HeightM float64
	SpeedMS                 float64
	ZenithDeg, AzimuthDeg   float64
	BulkDensityKGM3         float64
	MassKG                  float64
	JD                      float64
	MassMinKG, MassMaxKG    float64
	MassSigmaKG             float64
	Shape                   string
}

// MonteCarloSection holds the `montecarlo` section's sigmas (spec.md §6).
type MonteCarloSection struct {
	DLatDeg, DLonDeg, DZM    float64
	DSpeedMS                 float64
	DZenithDeg, DAzimuthDeg  float64
	DMassKG                  float64
	DBulkDensityKGM3         float64
}

// Config is a parsed configuration-mode input file.
type Config struct {
	Met        Met
	MonteCarlo MonteCarloSection
}

// LoadConfig parses a configuration-mode input file via gopkg.in/ini.v1.
// `exposure_time` (ISO8601) takes priority over the numeric `jd0` key if
// both are present (SPEC_FULL.md §9's Open Question resolution).
func LoadConfig(path string) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, err
	}
	met := f.Section("met")
	mc := f.Section("montecarlo")

	cfg := Config{
		Met: Met{
			LatDeg:          met.Key("lat0").MustFloat64(),
			LonDeg:          met.Key("lon0").MustFloat64(),
			HeightM:         met.Key("z0").MustFloat64(),
			SpeedMS:         met.Key("vtot0").MustFloat64(),
			ZenithDeg:       met.Key("zenangle").MustFloat64(),
			AzimuthDeg:      met.Key("azimuth0").MustFloat64(),
			BulkDensityKGM3: met.Key("rdens0").MustFloat64(3500),
			MassKG:          met.Key("mass0").MustFloat64(),
			MassMinKG:       met.Key("m_min").MustFloat64(),
			MassMaxKG:       met.Key("m_max").MustFloat64(),
			MassSigmaKG:     met.Key("m_sigma").MustFloat64(),
			Shape:           met.Key("c_s").MustString("s"),
		},
		MonteCarlo: MonteCarloSection{
			DLatDeg:          mc.Key("dlat").MustFloat64(),
			DLonDeg:          mc.Key("dlon").MustFloat64(),
			DZM:              mc.Key("dz").MustFloat64(),
			DSpeedMS:         mc.Key("dvtot").MustFloat64(),
			DZenithDeg:       mc.Key("dzenith").MustFloat64(),
			DAzimuthDeg:      mc.Key("dazimuth0").MustFloat64(),
			DMassKG:          mc.Key("dmass").MustFloat64(),
			DBulkDensityKGM3: mc.Key("drdens").MustFloat64(),
		},
	}

	if et := met.Key("exposure_time").String(); et != "" {
		t, err := time.Parse(time.RFC3339, et)
		if err != nil {
			return Config{}, errors.New("ensemble: malformed exposure_time: " + err.Error())
		}
		cfg.Met.JD = julianDateFromTime(t)
	} else if met.HasKey("jd0") {
		cfg.Met.JD = met.Key("jd0").MustFloat64()
	} else {
		return Config{}, errors.New("ensemble: met section requires exposure_time or jd0")
	}

	return cfg, nil
}

func julianDateFromTime(t time.Time) float64 {
	t = t.UTC()
	const unixEpochJD = 2440587.5
	return unixEpochJD + float64(t.Unix())/86400.0
}

// BuildFromConfig implements spec.md §4.G.3: read scalar initial
// parameters, and, when mcCount > 0, sample each independently from a normal
// distribution (mass and density via a positive-truncated normal),
// converting to ECEF then ECI once per sample.
func BuildFromConfig(world *darkflight.World, cfg Config, mcCount int, rng *rand.Rand) ([]Particle, error) {
	resolvedA := resolveShape(shapeCodeToName(cfg.Met.Shape), shapeCodeToA(cfg.Met.Shape))
	massLoss := drag.MassLossCoefficient(cfg.Met.BulkDensityKGM3, resolvedA)

	build := func(latDeg, lonDeg, heightM, speedMS, zenithDeg, azimuthDeg, massKG, bulkDensity float64) Particle {
		llh := darkflight.LLH{LatRad: latDeg * math.Pi / 180, LonRad: lonDeg * math.Pi / 180, HeightM: heightM}
		elevationRad := (90 - zenithDeg) * math.Pi / 180
		bearingRad := azimuthDeg * math.Pi / 180
		velENU := darkflight.VectorFromElevationBearingSpeed(elevationRad, bearingRad, speedMS)

		posECEF := world.LLH2ECEF(llh)
		velECEF := darkflight.ENU2ECEFVec(llh, velENU)
		epochSec := (cfg.Met.JD - 2451545.0) * 86400
		posECI, velECI := world.ECEF2ECI(posECEF, velECEF, epochSec)

		return Particle{
			T0JD:            cfg.Met.JD,
			PosECI:          posECI.Vec,
			VelECI:          velECI.Vec,
			MassKG:          massKG,
			BulkDensityKGM3: bulkDensity,
			Shape:           shapeCodeToName(cfg.Met.Shape),
			ShapeA:          resolvedA,
			MassLossCoeff:   massLoss,
			Weight:          1,
		}
	}

	if mcCount <= 0 {
		return []Particle{build(cfg.Met.LatDeg, cfg.Met.LonDeg, cfg.Met.HeightM, cfg.Met.SpeedMS, cfg.Met.ZenithDeg, cfg.Met.AzimuthDeg, cfg.Met.MassKG, cfg.Met.BulkDensityKGM3)}, nil
	}

	out := make([]Particle, mcCount)
	for i := 0; i < mcCount; i++ {
		lat := jitter(cfg.Met.LatDeg, cfg.MonteCarlo.DLatDeg, rng)
		lon := jitter(cfg.Met.LonDeg, cfg.MonteCarlo.DLonDeg, rng)
		h := jitter(cfg.Met.HeightM, cfg.MonteCarlo.DZM, rng)
		speed := jitter(cfg.Met.SpeedMS, cfg.MonteCarlo.DSpeedMS, rng)
		zenith := jitter(cfg.Met.ZenithDeg, cfg.MonteCarlo.DZenithDeg, rng)
		azimuth := jitter(cfg.Met.AzimuthDeg, cfg.MonteCarlo.DAzimuthDeg, rng)
		mass := truncatedNormalPositive(cfg.Met.MassKG, cfg.MonteCarlo.DMassKG, rng)
		density := truncatedNormalPositive(cfg.Met.BulkDensityKGM3, cfg.MonteCarlo.DBulkDensityKGM3, rng)
		p := build(lat, lon, h, speed, zenith, azimuth, mass, density)
		p.Weight = 1.0 / float64(mcCount)
		out[i] = p
	}
	return out, nil
}

func jitter(mean, sigma float64, rng *rand.Rand) float64 {
	if sigma <= 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: sigma, Src: rng}.Rand()
}

func shapeCodeToName(code string) string {
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

func shapeCodeToA(code string) float64 {
	if a, ok := drag.Lookup(shapeCodeToName(code)); ok {
		return a
	}
	v, err := parseFloat(code)
	if err != nil {
		return 1.21
	}
	return v
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
