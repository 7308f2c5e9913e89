package atmosphere

import (
	"math"
	"testing"

	"github.com/dfn-toolkit/darkflight"
)

func TestReferenceAtmosphereSeaLevel(t *testing.T) {
	temp, press, rho := ReferenceAtmosphere(0, 288.15)
	if math.Abs(temp-288.15) > 1e-9 {
		t.Errorf("sea level temp = %v, want 288.15", temp)
	}
	if math.Abs(press-101325) > 1e-6 {
		t.Errorf("sea level pressure = %v, want 101325", press)
	}
	if math.Abs(rho-1.225) > 1e-6 {
		t.Errorf("sea level density = %v, want 1.225", rho)
	}
}

func TestReferenceAtmosphereMonotonicDensity(t *testing.T) {
	_, _, rho0 := ReferenceAtmosphere(0, 288.15)
	_, _, rho1 := ReferenceAtmosphere(10_000, 288.15)
	if rho1 >= rho0 {
		t.Errorf("density should decrease with altitude: rho(0)=%v rho(10km)=%v", rho0, rho1)
	}
}

func TestReferenceSamplerFallsBackAboveSounding(t *testing.T) {
	w := darkflight.NewEarth()
	llh := darkflight.LLH{LatRad: 0.2, LonRad: 0.3, HeightM: 60_000}
	posECEF := w.LLH2ECEF(llh)
	posECI := w.ECEF2ECIPos(posECEF, 0)

	sounding := Sounding{
		HeightM:        []float64{0, 1000, 2000},
		WindSpeedMS:    []float64{5, 6, 7},
		WindDirRad:     []float64{0, 0, 0},
		TemperatureK:   []float64{288, 281, 275},
		PressurePa:   []float64{101325, 89875, 79501},
		RelHumidity:  []float64{0.5, 0.5, 0.5},
	}
	ss, err := NewSoundingSampler(sounding, NewReferenceSampler())
	if err != nil {
		t.Fatalf("NewSoundingSampler: %v", err)
	}
	sample := ss.Sample(w, posECI, 2451545.0)
	if sample.DensityKGM3 <= 0 {
		t.Errorf("expected positive density from reference fallback, got %v", sample.DensityKGM3)
	}
}

func TestWindFromSpeedDirectionConvention(t *testing.T) {
	// Wind from the north (WDir=0) should blow toward the south: negative
	// north component, zero east component.
	enu := windFromSpeedDirection(10, 0)
	if math.Abs(enu.Vec.X) > 1e-9 {
		t.Errorf("east component = %v, want 0", enu.Vec.X)
	}
	if enu.Vec.Y >= 0 {
		t.Errorf("north component = %v, want negative (wind blowing south)", enu.Vec.Y)
	}
}
