package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// ScoreColumns is the column order of the score export.
var ScoreColumns = []string{
	"sensor_id", "mean_thickness", "thickness_sd", "thickness_range",
	"r2_straightness", "TUS", "RUS", "TUS_category", "RUS_category",
}

// WriteScoresCSV writes the score export of scores to w.
func WriteScoresCSV(w io.Writer, scores []uniformity.SensorScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScoreColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, s := range scores {
		rec := []string{
			s.SensorID, num(s.MeanThickness), num(s.ThicknessSD), num(s.ThicknessRange),
			num(s.R2Straightness), num(s.TUS), num(s.RUS),
			s.TUSCategory.String(), s.RUSCategory.String(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", s.SensorID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ScoresCSV renders the score export into memory.
func ScoresCSV(scores []uniformity.SensorScore) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteScoresCSV(&buf, scores); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
