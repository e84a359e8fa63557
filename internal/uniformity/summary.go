package uniformity

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SortBestFirst returns a copy of scores ordered by descending band of the
// given kind. Sensors sharing a band are ordered by sensor id.
func SortBestFirst(scores []SensorScore, k Kind) []SensorScore {
	out := append([]SensorScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].Category(k), out[j].Category(k)
		if bi != bj {
			return bi > bj
		}
		return out[i].SensorID < out[j].SensorID
	})
	return out
}

// Distribution counts sensors per band of the given kind.
func Distribution(t *Table, k Kind) [NumBands]int {
	var counts [NumBands]int
	if t == nil {
		return counts
	}
	for _, s := range t.Scores {
		if b := s.Category(k); b.Valid() {
			counts[b]++
		}
	}
	return counts
}

// ScoreStats describes the spread of one composite score across sensors.
type ScoreStats struct {
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summary holds the dashboard metrics of a score table.
type Summary struct {
	Sensors       int        `json:"sensors"`
	TargetMean    float64    `json:"target_mean"`
	MeanThickness float64    `json:"mean_thickness"`
	MeanSD        float64    `json:"mean_sd"`
	MeanRange     float64    `json:"mean_range"`
	MeanTUS       float64    `json:"mean_tus"`
	MeanRUS       float64    `json:"mean_rus"`
	TUS           ScoreStats `json:"tus"`
	RUS           ScoreStats `json:"rus"`
}

// Summarize reduces a table to its dashboard metrics. An empty table gives a
// zero Summary carrying only the target mean.
func Summarize(t *Table) Summary {
	if t.Empty() {
		s := Summary{}
		if t != nil {
			s.TargetMean = t.TargetMean
		}
		return s
	}
	n := len(t.Scores)
	mean := make([]float64, n)
	sd := make([]float64, n)
	rng := make([]float64, n)
	tus := make([]float64, n)
	rus := make([]float64, n)
	for i, s := range t.Scores {
		mean[i] = s.MeanThickness
		sd[i] = s.ThicknessSD
		rng[i] = s.ThicknessRange
		tus[i] = s.TUS
		rus[i] = s.RUS
	}
	out := Summary{
		Sensors:       n,
		TargetMean:    t.TargetMean,
		MeanThickness: stat.Mean(mean, nil),
		MeanSD:        stat.Mean(sd, nil),
		MeanRange:     stat.Mean(rng, nil),
		TUS:           describeScores(tus),
		RUS:           describeScores(rus),
	}
	out.MeanTUS = out.TUS.Mean
	out.MeanRUS = out.RUS.Mean
	return out
}

func describeScores(xs []float64) ScoreStats {
	s := ScoreStats{
		Mean:   stat.Mean(xs, nil),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Median: median(xs),
	}
	if len(xs) > 1 {
		s.SD = stat.StdDev(xs, nil)
	}
	return s
}
