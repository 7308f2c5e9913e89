package atmosphere

import (
	"gonum.org/v1/gonum/interp"
	"github.com/soypat/geometry/md3"

	"github.com/dfn-toolkit/darkflight"
)

// Sounding is a single vertical profile of atmospheric state: height in
// metres, wind speed and wind-from direction, temperature, pressure and
// relative humidity as a 0-1 fraction (spec.md §3). Rows must be sorted
// ascending by HeightM.
type Sounding struct {
	HeightM      []float64
	WindSpeedMS  []float64
	WindDirRad   []float64
	TemperatureK []float64
	PressurePa   []float64
	RelHumidity  []float64
}

// SoundingSampler samples a 1-D sounding within its height range and falls
// back to a reference model outside it, above the top or below the bottom
// (spec.md §4.B rules 2-3).
type SoundingSampler struct {
	sounding Sounding
	fallback Sampler

	speed, dir, temp, press, rhum interp.PiecewiseCubic
	minH, maxH                    float64
	history
}

// NewSoundingSampler fits cubic interpolants over the supplied sounding and
// pairs it with a fallback sampler for heights outside the sounding's range
// (or if the sounding is empty).
func NewSoundingSampler(s Sounding, fallback Sampler) (*SoundingSampler, error) {
	ss := &SoundingSampler{sounding: s, fallback: fallback}
	if len(s.HeightM) == 0 {
		return ss, nil
	}
	ss.minH, ss.maxH = s.HeightM[0], s.HeightM[len(s.HeightM)-1]
	fits := []struct {
		dst *interp.PiecewiseCubic
		ys  []float64
	}{
		{&ss.speed, s.WindSpeedMS},
		{&ss.dir, s.WindDirRad},
		{&ss.temp, s.TemperatureK},
		{&ss.press, s.PressurePa},
		{&ss.rhum, s.RelHumidity},
	}
	for _, f := range fits {
		if err := f.dst.Fit(s.HeightM, f.ys); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

func (s *SoundingSampler) Sample(w *darkflight.World, pos darkflight.ECI, tJD float64) Sample {
	epochSec := (tJD - 2451545.0) * 86400
	posECEF := w.ECI2ECEFPos(pos, epochSec)
	llh := w.ECEF2LLH(posECEF)

	if len(s.sounding.HeightM) == 0 || llh.HeightM < s.minH || llh.HeightM > s.maxH {
		return s.fallback.Sample(w, pos, tJD)
	}

	speed := s.speed.Predict(llh.HeightM)
	dirRad := s.dir.Predict(llh.HeightM)
	tempK := s.temp.Predict(llh.HeightM)
	pressPa := s.press.Predict(llh.HeightM)
	rhum := s.rhum.Predict(llh.HeightM)

	windENU := windFromSpeedDirection(speed, dirRad)
	rho := densityFromStateVars(tempK, pressPa, rhum)

	windECEF := darkflight.ENU2ECEFVec(llh, windENU)
	windECI := darkflight.ECI{Vec: md3.Add(md3.MulMatVecTrans(w.TEI(epochSec), windECEF.Vec), rotationVelocity(w, pos))}

	s.push(HistoryEntry{HeightM: llh.HeightM, WindENU: windENU, DensityKGM3: rho, TemperatureK: tempK})
	return Sample{WindECI: windECI, DensityKGM3: rho, TemperatureK: tempK}
}

var _ Sampler = (*SoundingSampler)(nil)
