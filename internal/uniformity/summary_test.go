package uniformity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/uniformity.report/internal/ingest"
)

func TestSortBestFirst(t *testing.T) {
	scores := []SensorScore{
		{SensorID: "d", TUSCategory: 3, RUSCategory: 9},
		{SensorID: "b", TUSCategory: 7, RUSCategory: 1},
		{SensorID: "a", TUSCategory: 3, RUSCategory: 1},
		{SensorID: "c", TUSCategory: 7, RUSCategory: 5},
	}

	ids := func(ss []SensorScore) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.SensorID)
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(SortBestFirst(scores, TUS)))
	assert.Equal(t, []string{"d", "c", "a", "b"}, ids(SortBestFirst(scores, RUS)))
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids(scores), "input order is preserved")
}

func TestDistribution(t *testing.T) {
	tbl := &Table{Scores: []SensorScore{
		{TUSCategory: 9, RUSCategory: 0},
		{TUSCategory: 9, RUSCategory: 2},
		{TUSCategory: 1, RUSCategory: NoBand},
	}}
	tus := Distribution(tbl, TUS)
	assert.Equal(t, 2, tus[9])
	assert.Equal(t, 1, tus[1])

	rus := Distribution(tbl, RUS)
	assert.Equal(t, 1, rus[0])
	assert.Equal(t, 1, rus[2])
	total := 0
	for _, n := range rus {
		total += n
	}
	assert.Equal(t, 2, total)

	assert.Equal(t, [NumBands]int{}, Distribution(nil, TUS))
}

func TestSummarize(t *testing.T) {
	tbl := &Table{TargetMean: 17.5, Scores: []SensorScore{
		{MeanThickness: 17, ThicknessSD: 0.2, ThicknessRange: 1, TUS: 0.5, RUS: 0.4},
		{MeanThickness: 18, ThicknessSD: 0.4, ThicknessRange: 3, TUS: 0.7, RUS: 0.6},
		{MeanThickness: 19, ThicknessSD: 0.6, ThicknessRange: 2, TUS: 0.9, RUS: 0.2},
	}}
	s := Summarize(tbl)
	assert.Equal(t, 3, s.Sensors)
	assert.Equal(t, 17.5, s.TargetMean)
	assert.InDelta(t, 18, s.MeanThickness, eps)
	assert.InDelta(t, 0.4, s.MeanSD, eps)
	assert.InDelta(t, 2, s.MeanRange, eps)
	assert.InDelta(t, 0.7, s.MeanTUS, eps)
	assert.InDelta(t, 0.4, s.MeanRUS, eps)
	assert.InDelta(t, 0.2, s.TUS.SD, eps)
	assert.InDelta(t, 0.5, s.TUS.Min, eps)
	assert.InDelta(t, 0.9, s.TUS.Max, eps)
	assert.InDelta(t, 0.7, s.TUS.Median, eps)
	assert.InDelta(t, 0.4, s.RUS.Median, eps)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{TargetMean: 120}, Summarize(&Table{TargetMean: 120}))
	assert.Equal(t, Summary{}, Summarize(nil))

	one := Summarize(&Table{Scores: []SensorScore{{TUS: 0.3, RUS: 0.2}}})
	assert.Equal(t, 0.0, one.TUS.SD, "a single sensor has no spread")
}

func TestProfiles(t *testing.T) {
	var rows []ingest.Measurement
	rows = append(rows, sensor("B", []float64{0.7, 0.3, 0.5}, []float64{120, 120, 120})...)
	rows = append(rows, sensor("A", []float64{0.5, 0.3, 0.7}, []float64{120, 120, 120})...)
	rows = append(rows, sensor("C", []float64{0.3, 0.5, 0.7}, []float64{100, 130, 90})...)
	tbl := Score(cohort(ingest.Pre, rows...), 120)

	profiles := Profiles(tbl.Samples, tbl, TUS)
	require.NotEmpty(t, profiles)
	for i := 1; i < len(profiles); i++ {
		assert.Greater(t, profiles[i-1].Band, profiles[i].Band, "bands run best first")
	}

	best := profiles[0]
	require.Len(t, best.Sensors, 2)
	assert.Equal(t, "A", best.Sensors[0].SensorID)
	assert.Equal(t, "B", best.Sensors[1].SensorID)
	for _, sp := range best.Sensors {
		require.Len(t, sp.Samples, 3)
		assert.Equal(t, []float64{0.3, 0.5, 0.7}, []float64{sp.Samples[0].PositionMM, sp.Samples[1].PositionMM, sp.Samples[2].PositionMM})
	}

	assert.Nil(t, Profiles(nil, tbl, TUS))
	assert.Nil(t, Profiles(tbl.Samples, &Table{}, TUS))
}

func TestYRange(t *testing.T) {
	lo, hi, ok := YRange(sensor("A", []float64{0.3, 0.5}, []float64{10, 20}), 0.2)
	require.True(t, ok)
	assert.InDelta(t, 8, lo, eps)
	assert.InDelta(t, 22, hi, eps)

	lo, _, ok = YRange(sensor("A", []float64{0.3, 0.5}, []float64{1, 11}), 0.2)
	require.True(t, ok)
	assert.Equal(t, 0.0, lo, "lower bound floors at zero")

	_, _, ok = YRange(nil, 0.05)
	assert.False(t, ok)
}
