// Package ingest parses raw thickness datasets and splits them into the
// Pre and Post cohorts scored by the uniformity engine.
package ingest

import "math"

// Column names of the input contract.
const (
	ColSensorID    = "sensor_id"
	ColPosition    = "position_mm"
	ColCondition   = "condition"
	ColMeasurement = "measurement_mm"
	ColThickness   = "thickness_mm"
)

// RequiredColumns must be present in every dataset.
var RequiredColumns = []string{ColSensorID, ColPosition, ColCondition}

// Record is one parsed input row. Numeric fields that were empty,
// unparsable or absent from the file hold NaN.
type Record struct {
	SensorID      string
	PositionMM    float64
	Condition     Condition
	MeasurementMM float64
	ThicknessMM   float64
}

// Measurement is one reading inside a cohort. ThicknessUM is the unified
// thickness value in micrometres.
type Measurement struct {
	SensorID    string  `json:"sensor_id"`
	PositionMM  float64 `json:"position_mm"`
	ThicknessUM float64 `json:"thickness_um"`
}

// Cohort holds the measurement rows of a single condition. Rows outside the
// scoring window are retained for preview and audit.
type Cohort struct {
	Condition Condition
	Rows      []Measurement
}

// Empty reports whether the cohort has no rows.
func (c Cohort) Empty() bool {
	return len(c.Rows) == 0
}

// Dataset is a validated input table.
type Dataset struct {
	Columns []string
	Records []Record
}

// Partition splits the dataset into its Pre and Post cohorts.
//
// Pre thickness is measurement_mm as-is. Post thickness is thickness_mm and
// rows where it did not coerce to a number are dropped.
func (d *Dataset) Partition() (pre, post Cohort) {
	pre.Condition = Pre
	post.Condition = Post
	for _, r := range d.Records {
		switch r.Condition {
		case Pre:
			pre.Rows = append(pre.Rows, Measurement{
				SensorID:    r.SensorID,
				PositionMM:  r.PositionMM,
				ThicknessUM: r.MeasurementMM,
			})
		case Post:
			if math.IsNaN(r.ThicknessMM) {
				continue
			}
			post.Rows = append(post.Rows, Measurement{
				SensorID:    r.SensorID,
				PositionMM:  r.PositionMM,
				ThicknessUM: r.ThicknessMM,
			})
		}
	}
	return pre, post
}

// DatasetSummary describes an uploaded dataset before scoring.
type DatasetSummary struct {
	Rows       int         `json:"rows"`
	Sensors    int         `json:"sensors"`
	Conditions []Condition `json:"conditions"`
	PreRows    int         `json:"pre_rows"`
	PostRows   int         `json:"post_rows"`
}

// Summary counts rows, distinct sensors and distinct conditions. Conditions
// are listed in first-seen order.
func (d *Dataset) Summary() DatasetSummary {
	s := DatasetSummary{Rows: len(d.Records)}
	sensors := make(map[string]struct{})
	seen := make(map[Condition]struct{})
	for _, r := range d.Records {
		sensors[r.SensorID] = struct{}{}
		if _, ok := seen[r.Condition]; !ok {
			seen[r.Condition] = struct{}{}
			s.Conditions = append(s.Conditions, r.Condition)
		}
	}
	s.Sensors = len(sensors)
	pre, post := d.Partition()
	s.PreRows = len(pre.Rows)
	s.PostRows = len(post.Rows)
	return s
}
