package terrain

import (
	"math"
	"testing"
)

func TestConstantSource(t *testing.T) {
	c := ConstantSource{HeightM: 250}
	h, void := c.HeightAboveSeaLevel(0.1, 0.2)
	if void {
		t.Error("ConstantSource should never report void")
	}
	if h != 250 {
		t.Errorf("height = %v, want 250", h)
	}
}

func TestSRTMCacheMissingTileReportsVoid(t *testing.T) {
	c := NewSRTMCache(t.TempDir())
	var gotVoidCallback bool
	c.OnVoid = func(lat, lon float64) { gotVoidCallback = true }
	h, void := c.HeightAboveSeaLevel(10*math.Pi/180, 20*math.Pi/180)
	if !void {
		t.Error("expected void for missing tile")
	}
	if h != 0 {
		t.Errorf("expected 0 m substitution, got %v", h)
	}
	if !gotVoidCallback {
		t.Error("expected OnVoid callback to fire")
	}
}

func TestSRTMCacheMemoizesFailedLookups(t *testing.T) {
	c := NewSRTMCache(t.TempDir())
	c.HeightAboveSeaLevel(0.1, 0.1) // 0.1 rad is about 5.73 degrees
	if _, ok := c.tiles.Load(tileKey{lat: 5, lon: 5}); !ok {
		t.Error("expected missing-tile result to be memoized")
	}
}
