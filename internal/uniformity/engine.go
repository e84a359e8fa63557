// Package uniformity computes per-sensor thickness uniformity scores.
//
// A cohort is filtered to the scoring window, grouped by sensor, and each
// sensor is reduced to five statistics (mean, SD, range, linear-fit R²,
// left/right symmetry). Those feed two fixed composites: TUS, which rewards
// closeness to a target mean, and RUS, which rewards flatness alone.
package uniformity

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/uniformity.report/internal/ingest"
)

// Scoring window and fixed model constants.
const (
	MinPositionMM = 0.2
	MaxPositionMM = 0.8

	// MeanSigma is the width of the Gaussian falloff around the target mean.
	MeanSigma = 2.0
)

// Composite weights.
const (
	tusMeanWeight       = 0.3
	tusSmoothnessWeight = 0.2
	tusRangeWeight      = 0.2
	tusR2Weight         = 0.2
	tusSymmetryWeight   = 0.1

	rusSmoothnessWeight = 0.25
	rusRangeWeight      = 0.35
	rusR2Weight         = 0.20
	rusSymmetryWeight   = 0.20
)

// SensorScore is the score record of one sensor.
type SensorScore struct {
	SensorID       string  `json:"sensor_id"`
	Samples        int     `json:"samples"`
	MeanThickness  float64 `json:"mean_thickness"`
	ThicknessSD    float64 `json:"thickness_sd"`
	ThicknessRange float64 `json:"thickness_range"`
	R2Straightness float64 `json:"r2_straightness"`
	SymmetryBonus  float64 `json:"symmetry_bonus"`

	MeanPenalty       float64 `json:"mean_penalty"`
	SmoothnessPenalty float64 `json:"smoothness_penalty"`
	RangePenalty      float64 `json:"range_penalty"`

	TUS         float64 `json:"TUS"`
	RUS         float64 `json:"RUS"`
	TUSCategory Band    `json:"TUS_category"`
	RUSCategory Band    `json:"RUS_category"`
}

// Value returns the composite score of the given kind.
func (s SensorScore) Value(k Kind) float64 {
	if k == RUS {
		return s.RUS
	}
	return s.TUS
}

// Category returns the band of the given kind.
func (s SensorScore) Category(k Kind) Band {
	if k == RUS {
		return s.RUSCategory
	}
	return s.TUSCategory
}

// Table is the scored output of one cohort. Tables are shared by the cache
// and must be treated as read-only.
type Table struct {
	Condition      ingest.Condition     `json:"condition"`
	TargetMean     float64              `json:"target_mean"`
	GlobalMaxRange float64              `json:"global_max_range"`
	Scores         []SensorScore        `json:"scores"`
	Samples        []ingest.Measurement `json:"-"`
}

// Empty reports whether no sensor was scored.
func (t *Table) Empty() bool {
	return t == nil || len(t.Scores) == 0
}

// Lookup returns the score record of a sensor.
func (t *Table) Lookup(sensorID string) (SensorScore, bool) {
	i := sort.Search(len(t.Scores), func(i int) bool { return t.Scores[i].SensorID >= sensorID })
	if i < len(t.Scores) && t.Scores[i].SensorID == sensorID {
		return t.Scores[i], true
	}
	return SensorScore{}, false
}

// Filter returns the rows inside the scoring window with a positive,
// non-missing thickness.
func Filter(rows []ingest.Measurement) []ingest.Measurement {
	out := make([]ingest.Measurement, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.PositionMM) || math.IsNaN(r.ThicknessUM) {
			continue
		}
		if r.PositionMM < MinPositionMM || r.PositionMM > MaxPositionMM {
			continue
		}
		if r.ThicknessUM <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sensorGroup is the filtered samples of one sensor in input order.
type sensorGroup struct {
	id        string
	positions []float64
	values    []float64
}

// groupBySensor groups rows by sensor id, ordered by id.
func groupBySensor(rows []ingest.Measurement) []sensorGroup {
	idx := make(map[string]int)
	var groups []sensorGroup
	for _, r := range rows {
		i, ok := idx[r.SensorID]
		if !ok {
			i = len(groups)
			idx[r.SensorID] = i
			groups = append(groups, sensorGroup{id: r.SensorID})
		}
		groups[i].positions = append(groups[i].positions, r.PositionMM)
		groups[i].values = append(groups[i].values, r.ThicknessUM)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].id < groups[b].id })
	return groups
}

// Score computes the score table of a cohort against targetMean. An empty
// cohort, or one with no rows surviving Filter, yields an empty table.
func Score(c ingest.Cohort, targetMean float64) *Table {
	t := &Table{Condition: c.Condition, TargetMean: targetMean}
	t.Samples = Filter(c.Rows)
	if len(t.Samples) == 0 {
		return t
	}

	groups := groupBySensor(t.Samples)
	t.Scores = make([]SensorScore, len(groups))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, grp := range groups {
		g.Go(func() error {
			t.Scores[i] = describe(grp)
			return nil
		})
	}
	_ = g.Wait()

	// Every range penalty is relative to the same cohort-wide maximum, so it
	// is reduced before any composite is evaluated.
	t.GlobalMaxRange = globalMaxRange(t.Scores)
	for i := range t.Scores {
		composite(&t.Scores[i], targetMean, t.GlobalMaxRange)
	}
	return t
}

// describe computes the per-sensor statistics that do not depend on the
// rest of the cohort.
func describe(g sensorGroup) SensorScore {
	mean, sd, rng := spread(g.values)
	return SensorScore{
		SensorID:       g.id,
		Samples:        len(g.values),
		MeanThickness:  mean,
		ThicknessSD:    sd,
		ThicknessRange: rng,
		R2Straightness: straightness(g.positions, g.values),
		SymmetryBonus:  symmetry(g.positions, g.values),
	}
}

func globalMaxRange(scores []SensorScore) float64 {
	m := math.Inf(-1)
	for _, s := range scores {
		if s.ThicknessRange > m {
			m = s.ThicknessRange
		}
	}
	return m
}

// composite fills in the penalty terms, the two composite scores and their
// bands.
func composite(s *SensorScore, targetMean, maxRange float64) {
	d := s.MeanThickness - targetMean
	s.MeanPenalty = math.Exp(-(d * d) / (2 * MeanSigma * MeanSigma))
	s.SmoothnessPenalty = 1 / (1 + s.ThicknessSD)
	s.RangePenalty = 0
	if maxRange > 0 && !math.IsInf(maxRange, 0) && !math.IsNaN(maxRange) {
		s.RangePenalty = 1 - s.ThicknessRange/maxRange
	}

	s.TUS = tusMeanWeight*s.MeanPenalty +
		tusSmoothnessWeight*s.SmoothnessPenalty +
		tusRangeWeight*s.RangePenalty +
		tusR2Weight*s.R2Straightness +
		tusSymmetryWeight*s.SymmetryBonus

	s.RUS = rusSmoothnessWeight*s.SmoothnessPenalty +
		rusRangeWeight*s.RangePenalty +
		rusR2Weight*s.R2Straightness +
		rusSymmetryWeight*s.SymmetryBonus

	s.TUSCategory = BandFor(s.TUS)
	s.RUSCategory = BandFor(s.RUS)
}
