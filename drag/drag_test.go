package drag

import "testing"

func TestMassLossCoefficientBands(t *testing.T) {
	cases := []struct {
		rho  float64
		want float64
	}{
		{6000, 0.07e-6 * CdHypersonic(1.21)},
		{3000, 0.014e-6 * CdHypersonic(1.21)},
		{2000, 0.042e-6 * CdHypersonic(1.21)},
		{1000, 0.1e-6 * CdHypersonic(1.21)},
	}
	for _, c := range cases {
		got := MassLossCoefficient(c.rho, 1.21)
		if got != c.want {
			t.Errorf("MassLossCoefficient(%v) = %v, want %v", c.rho, got, c.want)
		}
	}
}

func TestCoefficientRegimes(t *testing.T) {
	a, _ := Lookup(ShapeSphere)
	// Dense low atmosphere, high speed: continuum regime, Cd close to hypersonic value.
	cd, re, kn, ma := Coefficient(7000, 250, 1.0, a)
	if kn > 0.01 {
		t.Errorf("expected continuum regime (small Kn) at sea-level density, got Kn=%v", kn)
	}
	if cd != CdHypersonic(a) {
		t.Errorf("continuum Cd = %v, want hypersonic value %v", cd, CdHypersonic(a))
	}
	if re <= 0 || ma <= 0 {
		t.Errorf("expected positive Re, Ma: got Re=%v Ma=%v", re, ma)
	}

	// Very thin atmosphere: free-molecular regime, Cd approaches 2.0.
	cd2, _, kn2, _ := Coefficient(7000, 250, 1e-9, a)
	if kn2 < 10 {
		t.Errorf("expected free-molecular regime (large Kn) at very low density, got Kn=%v", kn2)
	}
	if cd2 != 2.0 {
		t.Errorf("free-molecular Cd = %v, want 2.0", cd2)
	}
}

func TestShapeLookup(t *testing.T) {
	if a, ok := Lookup(ShapeSphere); !ok || a != 1.21 {
		t.Errorf("Lookup(sphere) = %v, %v; want 1.21, true", a, ok)
	}
	if _, ok := Lookup("unknown"); ok {
		t.Errorf("Lookup(unknown) should not be found")
	}
}
