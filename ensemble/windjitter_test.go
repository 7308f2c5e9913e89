package ensemble

import (
	"math/rand"
	"testing"

	"github.com/dfn-toolkit/darkflight/atmosphere"
)

func testSounding() atmosphere.Sounding {
	return atmosphere.Sounding{
		HeightM:      []float64{0, 1000, 2000},
		WindSpeedMS:  []float64{5, 6, 7},
		WindDirRad:   []float64{0, 0.2, 0.4},
		TemperatureK: []float64{288, 281, 275},
		PressurePa:   []float64{101325, 89875, 79501},
		RelHumidity:  []float64{0.5, 0.5, 0.5},
	}
}

func TestJitterSoundingPerturbsEachLayerIndependently(t *testing.T) {
	s := testSounding()
	rng := rand.New(rand.NewSource(1))
	jittered := jitterSounding(s, 5, rng)

	allSame := true
	for i := 1; i < len(jittered.WindSpeedMS); i++ {
		if jittered.WindSpeedMS[i] != jittered.WindSpeedMS[0] || jittered.WindDirRad[i] != jittered.WindDirRad[0] {
			allSame = false
		}
	}
	if allSame {
		t.Error("every layer received an identical offset, expected independent per-layer draws")
	}
	for i := range s.WindSpeedMS {
		if jittered.WindSpeedMS[i] == s.WindSpeedMS[i] {
			t.Errorf("layer %d: wind speed unchanged by jitter", i)
		}
	}
}

func TestWindJitterFactoryPerRealizationCopyIndependentDraws(t *testing.T) {
	s := testSounding()
	factory, err := NewSoundingWindJitterFactory(s, atmosphere.NewReferenceSampler(), 5)
	if err != nil {
		t.Fatalf("NewSoundingWindJitterFactory: %v", err)
	}

	a := factory.PerRealizationCopy(rand.New(rand.NewSource(1)))
	b := factory.PerRealizationCopy(rand.New(rand.NewSource(2)))
	if a == b {
		t.Error("distinct rngs must yield distinct sampler instances")
	}

	if _, ok := a.(*atmosphere.SoundingSampler); !ok {
		t.Fatalf("expected *atmosphere.SoundingSampler, got %T", a)
	}
}

func TestSpeedDirRoundTrip(t *testing.T) {
	speed, dir := 12.5, 1.3
	east, north := speedDirToWindVector(speed, dir)
	gotSpeed, gotDir := windVectorToSpeedDir(east, north)
	if diff := gotSpeed - speed; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("speed round-trip = %v, want %v", gotSpeed, speed)
	}
	if diff := gotDir - dir; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("dir round-trip = %v, want %v", gotDir, dir)
	}
}
