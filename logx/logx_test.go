package logx

import "testing"

func TestExitCodeMapping(t *testing.T) {
	cases := map[ErrorKind]int{
		KindInputMalformed:        2,
		KindArgumentInvalid:       1,
		KindEnvironmentDegraded:   0,
		KindPropagationDegenerate: 0,
	}
	for kind, want := range cases {
		if got := kind.ExitCode(); got != want {
			t.Errorf("ExitCode(%v) = %d, want %d", kind, got, want)
		}
	}
}

func TestNewDefaultsToInfoLevel(t *testing.T) {
	l := New("bogus", "stdout")
	if l.GetLevel().String() != "info" {
		t.Errorf("level = %v, want info", l.GetLevel())
	}
}
