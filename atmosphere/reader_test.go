package atmosphere

import (
	"strings"
	"testing"
)

func TestReadSoundingCSVSortsByHeight(t *testing.T) {
	const data = "# Height, TempK, Press, RHum, Wind, WDir\n" +
		"1000,280,90000,40,5,180\n" +
		"0,288,101325,50,2,90\n" +
		"5000,250,54000,20,15,200\n"
	s, err := ReadSoundingCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSoundingCSV: %v", err)
	}
	if len(s.HeightM) != 3 {
		t.Fatalf("got %d rows, want 3", len(s.HeightM))
	}
	for i := 1; i < len(s.HeightM); i++ {
		if s.HeightM[i] < s.HeightM[i-1] {
			t.Fatalf("rows not sorted ascending: %v", s.HeightM)
		}
	}
	if s.HeightM[0] != 0 || s.TemperatureK[0] != 288 {
		t.Errorf("first row = %+v, want height 0 temp 288", s)
	}
}

func TestReadSoundingCSVMissingColumn(t *testing.T) {
	const data = "# Height, TempK, Press, RHum, Wind\n0,288,101325,50,2\n"
	if _, err := ReadSoundingCSV(strings.NewReader(data)); err == nil {
		t.Error("expected an error for a missing WDir column")
	}
}
