package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/testutil"
	"github.com/banshee-data/uniformity.report/internal/timeutil"
	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

var epoch = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func newStore(t *testing.T, ttl time.Duration) (*Store, *timeutil.MockClock, *monitoring.Metrics) {
	t.Helper()
	clock := timeutil.NewMockClock(epoch)
	m := monitoring.NewMetrics(prometheus.NewRegistry())
	st := NewStore(Options{TTL: ttl, Clock: clock, Metrics: m, ReportWorkers: 2})
	t.Cleanup(st.Close)
	return st, clock, m
}

func sampleDataset(t *testing.T) *ingest.Dataset {
	t.Helper()
	ds, err := ingest.ReadCSV(strings.NewReader(testutil.SampleCSV()))
	require.NoError(t, err)
	return ds
}

func defaultParams() Params {
	p := ParamsFromConfig(nil)
	p.Filename = "sample.csv"
	return p
}

func TestStore_CreateGetDelete(t *testing.T) {
	st, _, m := newStore(t, time.Hour)

	s, err := st.Create()
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)
	assert.Equal(t, epoch, s.Created)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ActiveSessions))

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get("1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Delete(s.ID))
	assert.ErrorIs(t, st.Delete(s.ID), ErrNotFound)
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0.0, promtest.ToFloat64(m.ActiveSessions))
}

func TestStore_IdleExpiry(t *testing.T) {
	st, clock, _ := newStore(t, time.Hour)

	a, err := st.Create()
	require.NoError(t, err)
	b, err := st.Create()
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	_, err = st.Get(a.ID) // keeps a alive
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, st.Sweep())
	_, err = st.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(a.ID)
	assert.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = st.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestStore_NoTTLNeverExpires(t *testing.T) {
	st, clock, _ := newStore(t, 0)
	s, err := st.Create()
	require.NoError(t, err)
	clock.Advance(1000 * time.Hour)
	assert.Equal(t, 0, st.Sweep())
	_, err = st.Get(s.ID)
	assert.NoError(t, err)
}

func TestStore_Run(t *testing.T) {
	st, clock, _ := newStore(t, time.Minute)
	_, err := st.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return st.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestSession_Process(t *testing.T) {
	st, _, m := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)

	_, err = s.Analysis()
	assert.ErrorIs(t, err, ErrNoAnalysis)

	a, err := s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)
	assert.Equal(t, "sample.csv", a.Filename)
	assert.Equal(t, testutil.SampleSensors, a.Dataset.Sensors)
	assert.Equal(t, epoch, a.CreatedAt)

	for _, c := range []ingest.Condition{ingest.Pre, ingest.Post} {
		r := a.Result(c)
		require.NotNil(t, r, c)
		assert.Equal(t, c, r.Condition)
		assert.Len(t, r.Table.Scores, testutil.SampleSensors)
		assert.Equal(t, testutil.SampleSensors, r.Summary.Sensors)
		assert.True(t, r.YRange.OK)
		assert.GreaterOrEqual(t, r.YRange.Lo, 0.0)
		assert.False(t, r.CacheHit)
		assert.Len(t, r.Charts, 4)
		for _, k := range []uniformity.Kind{uniformity.TUS, uniformity.RUS} {
			assert.NotEmpty(t, r.Charts[ChartKey(k, ViewDistribution)])
			assert.NotEmpty(t, r.Charts[ChartKey(k, ViewProfile)])
		}
		assert.Contains(t, string(r.Report), r.Title())
		assert.Contains(t, string(r.Report), "Report generated from: sample.csv")
	}
	assert.Equal(t, 120.0, a.Pre.Table.TargetMean)
	assert.Equal(t, 17.5, a.Post.Table.TargetMean)
	assert.Equal(t, "Pre-OL Thickness Report", a.Pre.Title())
	assert.Equal(t, "Post_OL_report_20261014.html", a.Post.Filename(epoch))
	assert.Nil(t, a.Result(ingest.Condition("Mid")))

	again, err := s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)
	assert.True(t, again.Pre.CacheHit)
	assert.True(t, again.Post.CacheHit)
	hits, misses := s.CacheStats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Analyses.WithLabelValues("ok")))
	assert.Equal(t, 4.0, promtest.ToFloat64(m.ReportsGenerated.WithLabelValues("interactive")))
}

func TestSession_ProcessTargetOverride(t *testing.T) {
	st, _, _ := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)

	p := defaultParams()
	p.TargetMeanPre = 100
	a, err := s.Process(context.Background(), sampleDataset(t), p)
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.Pre.Table.TargetMean)
	assert.False(t, a.Pre.CacheHit)
}

func TestSession_ProcessCancelled(t *testing.T) {
	st, _, m := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Process(ctx, sampleDataset(t), defaultParams())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Analysis()
	assert.ErrorIs(t, err, ErrNoAnalysis)
	assert.Equal(t, 0.0, promtest.ToFloat64(m.Analyses.WithLabelValues("ok")))
}

func TestSession_EmptyCohort(t *testing.T) {
	st, _, _ := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)

	ds, err := ingest.ReadCSV(strings.NewReader("sensor_id,position_mm,condition,measurement_mm\nA,0.5,Pre,120\nA,0.6,Pre,121\n"))
	require.NoError(t, err)
	a, err := s.Process(context.Background(), ds, defaultParams())
	require.NoError(t, err)

	assert.Len(t, a.Pre.Table.Scores, 1)
	assert.True(t, a.Post.Table.Empty())
	assert.False(t, a.Post.YRange.OK)
	assert.Contains(t, string(a.Post.Report), "No Data Available")
}

func TestSession_Isolation(t *testing.T) {
	st, _, _ := newStore(t, time.Hour)
	a, err := st.Create()
	require.NoError(t, err)
	b, err := st.Create()
	require.NoError(t, err)

	_, err = a.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)

	_, err = b.Analysis()
	assert.ErrorIs(t, err, ErrNoAnalysis)

	got, err := b.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)
	assert.False(t, got.Pre.CacheHit, "caches are per session")
}

func TestSession_Clear(t *testing.T) {
	st, _, _ := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)
	_, err = s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)

	require.NoError(t, st.Clear(s.ID))
	_, err = s.Analysis()
	assert.ErrorIs(t, err, ErrNoAnalysis)
	_, err = s.Result(ingest.Pre)
	assert.ErrorIs(t, err, ErrNoAnalysis)

	a, err := s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)
	assert.False(t, a.Pre.CacheHit, "cache purged")

	assert.ErrorIs(t, st.Clear("1b4e28ba-2fa1-11d2-883f-0016d3cca427"), ErrNotFound)
}

func TestSession_StaticReport(t *testing.T) {
	st, _, m := newStore(t, time.Hour)
	s, err := st.Create()
	require.NoError(t, err)

	_, err = s.StartStaticReport(ingest.Pre)
	assert.ErrorIs(t, err, ErrNoAnalysis)

	_, err = s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)

	_, _, err = s.StaticReport(ingest.Pre)
	assert.Error(t, err)

	started, err := s.StartStaticReport(ingest.Pre)
	require.NoError(t, err)
	assert.True(t, started)
	require.NoError(t, s.WaitStaticReport(context.Background(), ingest.Pre))

	p, doc, err := s.StaticReport(ingest.Pre)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Contains(t, string(doc), "data:image/png;base64,")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ReportsGenerated.WithLabelValues("static")))

	// A new upload invalidates finished static reports.
	_, err = s.Process(context.Background(), sampleDataset(t), defaultParams())
	require.NoError(t, err)
	_, _, err = s.StaticReport(ingest.Pre)
	assert.Error(t, err)
}
