package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV parses a header-led CSV dataset and validates its columns.
//
// Missing base columns are reported before any row is read. Condition
// specific columns are checked after every row's condition is normalized:
// measurement_mm is required when any row is Pre and thickness_mm when any
// row is Post. Both cases return a *ValidationError.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Missing: append([]string(nil), RequiredColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	measIdx, hasMeas := index[ColMeasurement]
	thickIdx, hasThick := index[ColThickness]
	caser := conditionCaser()

	ds := &Dataset{Columns: columns}
	var sawPre, sawPost bool
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := Record{
			SensorID:      strings.TrimSpace(rec[index[ColSensorID]]),
			PositionMM:    parseNumber(rec[index[ColPosition]]),
			Condition:     normalizeWith(caser, rec[index[ColCondition]]),
			MeasurementMM: math.NaN(),
			ThicknessMM:   math.NaN(),
		}
		if hasMeas {
			row.MeasurementMM = parseNumber(rec[measIdx])
		}
		if hasThick {
			row.ThicknessMM = parseNumber(rec[thickIdx])
		}
		switch row.Condition {
		case Pre:
			sawPre = true
		case Post:
			sawPost = true
		}
		ds.Records = append(ds.Records, row)
	}

	if sawPre && !hasMeas {
		missing = append(missing, ColMeasurement)
	}
	if sawPost && !hasThick {
		missing = append(missing, ColThickness)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return ds, nil
}

// parseNumber coerces a cell to float64, returning NaN for empty or
// non-numeric input.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
