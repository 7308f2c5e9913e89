package atmosphere

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dfn-toolkit/darkflight"
)

// ReadSoundingCSV parses the `# Height, TempK, Press, RHum, Wind, WDir`
// sounding file spec.md §6 describes into a Sounding, sorted ascending by
// height. Wind direction is degrees from north, clockwise, "coming from";
// it is converted to radians but the coming-from convention is preserved
// for windFromSpeedDirection to interpret. RHum is read as a 0-100 percent
// column, the conventional unit for a radiosonde sounding file, and
// divided by 100 here so Sounding.RelHumidity always holds the 0-1
// fraction spec.md §3 defines; this is the sounding's only unit
// conversion point, keeping densityFromStateVars's input unambiguous.
func ReadSoundingCSV(r io.Reader) (Sounding, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Sounding{}, fmt.Errorf("%w: %v", darkflight.ErrInputMalformed, err)
	}
	if len(records) == 0 {
		return Sounding{}, fmt.Errorf("%w: empty sounding file", darkflight.ErrInputMalformed)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(strings.TrimSpace(header[0]), "#")
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"height", "tempk", "press", "rhum", "wind", "wdir"}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return Sounding{}, fmt.Errorf("%w: sounding file missing column %q", darkflight.ErrInputMalformed, k)
		}
	}

	var s Sounding
	for _, rec := range records[1:] {
		s.HeightM = append(s.HeightM, parseF(rec[col["height"]]))
		s.TemperatureK = append(s.TemperatureK, parseF(rec[col["tempk"]]))
		s.PressurePa = append(s.PressurePa, parseF(rec[col["press"]]))
		s.RelHumidity = append(s.RelHumidity, parseF(rec[col["rhum"]])/100)
		s.WindSpeedMS = append(s.WindSpeedMS, parseF(rec[col["wind"]]))
		s.WindDirRad = append(s.WindDirRad, parseF(rec[col["wdir"]])*math.Pi/180)
	}
	sortByHeight(&s)
	return s, nil
}

func parseF(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// sortByHeight insertion-sorts the sounding's parallel slices ascending by
// HeightM; sounding files are small (tens to low hundreds of rows), so the
// quadratic worst case never matters in practice.
func sortByHeight(s *Sounding) {
	n := len(s.HeightM)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && s.HeightM[j-1] > s.HeightM[j]; j-- {
			swap(s, j-1, j)
		}
	}
}

func swap(s *Sounding, i, j int) {
	s.HeightM[i], s.HeightM[j] = s.HeightM[j], s.HeightM[i]
	s.WindSpeedMS[i], s.WindSpeedMS[j] = s.WindSpeedMS[j], s.WindSpeedMS[i]
	s.WindDirRad[i], s.WindDirRad[j] = s.WindDirRad[j], s.WindDirRad[i]
	s.TemperatureK[i], s.TemperatureK[j] = s.TemperatureK[j], s.TemperatureK[i]
	s.PressurePa[i], s.PressurePa[j] = s.PressurePa[j], s.PressurePa[i]
	s.RelHumidity[i], s.RelHumidity[j] = s.RelHumidity[j], s.RelHumidity[i]
}
