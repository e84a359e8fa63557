package uniformity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/uniformity.report/internal/ingest"
)

// SensorProfile is one sensor's filtered samples ordered by position.
type SensorProfile struct {
	SensorID string
	Samples  []ingest.Measurement
}

// BandProfile groups the sensor profiles that share a band.
type BandProfile struct {
	Band    Band
	Sensors []SensorProfile
}

// Profiles groups filtered samples by the band each sensor received for kind
// k. Bands run best first and sensors within a band by id. Samples whose
// sensor has no score record are skipped.
func Profiles(samples []ingest.Measurement, t *Table, k Kind) []BandProfile {
	if t.Empty() || len(samples) == 0 {
		return nil
	}
	bySensor := make(map[string][]ingest.Measurement)
	for _, m := range samples {
		bySensor[m.SensorID] = append(bySensor[m.SensorID], m)
	}

	byBand := make(map[Band][]SensorProfile)
	for _, s := range t.Scores {
		rows, ok := bySensor[s.SensorID]
		if !ok {
			continue
		}
		b := s.Category(k)
		if !b.Valid() {
			continue
		}
		rows = append([]ingest.Measurement(nil), rows...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].PositionMM < rows[j].PositionMM })
		byBand[b] = append(byBand[b], SensorProfile{SensorID: s.SensorID, Samples: rows})
	}

	out := make([]BandProfile, 0, len(byBand))
	for b := Band(NumBands - 1); b >= 0; b-- {
		sensors, ok := byBand[b]
		if !ok {
			continue
		}
		sort.Slice(sensors, func(i, j int) bool { return sensors[i].SensorID < sensors[j].SensorID })
		out = append(out, BandProfile{Band: b, Sensors: sensors})
	}
	return out
}

// YRange returns a profile axis range padded by pad times the data span on
// each side, with the lower bound floored at 0. ok is false for no samples.
func YRange(samples []ingest.Measurement, pad float64) (lo, hi float64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, false
	}
	vals := make([]float64, len(samples))
	for i, m := range samples {
		vals[i] = m.ThicknessUM
	}
	minV, maxV := floats.Min(vals), floats.Max(vals)
	p := (maxV - minV) * pad
	return math.Max(0, minV-p), maxV + p, true
}
