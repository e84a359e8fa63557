package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/uniformity.report/internal/config"
	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/report"
	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// Params are the caller inputs of one analysis run.
type Params struct {
	Filename       string
	TargetMeanPre  float64
	TargetMeanPost float64
	PaddingPre     float64
	PaddingPost    float64
	Charts         report.ChartOptions
}

// ParamsFromConfig fills Params from cfg. A nil cfg yields the defaults.
func ParamsFromConfig(cfg *config.AnalysisConfig) Params {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	return Params{
		TargetMeanPre:  cfg.GetTargetMeanPre(),
		TargetMeanPost: cfg.GetTargetMeanPost(),
		PaddingPre:     cfg.GetProfilePaddingPre(),
		PaddingPost:    cfg.GetProfilePaddingPost(),
		Charts:         report.ChartOptions{AssetsHost: cfg.GetEChartsAssetsHost()},
	}
}

func (p Params) target(c ingest.Condition) float64 {
	if c == ingest.Post {
		return p.TargetMeanPost
	}
	return p.TargetMeanPre
}

func (p Params) padding(c ingest.Condition) float64 {
	if c == ingest.Post {
		return p.PaddingPost
	}
	return p.PaddingPre
}

// Chart views served per kind.
const (
	ViewDistribution = "distribution"
	ViewProfile      = "profile"
)

// ChartKey names a rendered chart, e.g. "tus-distribution".
func ChartKey(k uniformity.Kind, view string) string {
	return fmt.Sprintf("%s-%s", k.Slug(), view)
}

// Result is the processed output of one cohort.
type Result struct {
	Condition ingest.Condition
	Name      string
	Table     *uniformity.Table
	Summary   uniformity.Summary
	YRange    report.AxisRange
	CacheHit  bool

	// Charts holds standalone chart pages by ChartKey.
	Charts map[string][]byte
	// Report is the interactive HTML report.
	Report []byte
}

// Title is the report heading of the cohort.
func (r *Result) Title() string {
	return r.Name + " Thickness Report"
}

// Filename is the download name of the cohort report on day.
func (r *Result) Filename(day time.Time) string {
	return report.Filename(r.Name, day)
}

// Analysis is the output of one upload.
type Analysis struct {
	Filename  string
	Dataset   ingest.DatasetSummary
	Pre       *Result
	Post      *Result
	CreatedAt time.Time
}

// Result returns the cohort result for c, or nil for any other condition.
func (a *Analysis) Result(c ingest.Condition) *Result {
	switch c {
	case ingest.Pre:
		return a.Pre
	case ingest.Post:
		return a.Post
	}
	return nil
}

func analysisName(c ingest.Condition) string {
	return string(c) + "-OL"
}

// Process scores both cohorts of ds through the session cache, renders their
// charts and interactive reports, and stores the result as the session's
// current analysis. Any earlier static reports are discarded.
func (s *Session) Process(ctx context.Context, ds *ingest.Dataset, p Params) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	pre, post := ds.Partition()
	a := &Analysis{
		Filename:  p.Filename,
		Dataset:   ds.Summary(),
		CreatedAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range []ingest.Cohort{pre, post} {
		g.Go(func() error {
			r, err := s.process(gctx, c, p, now)
			if err != nil {
				return fmt.Errorf("%s cohort: %w", c.Condition, err)
			}
			if c.Condition == ingest.Pre {
				a.Pre = r
			} else {
				a.Post = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.ObserveAnalysis("error")
		return nil, err
	}

	s.mu.Lock()
	s.analysis = a
	s.lastUsed = now
	s.mu.Unlock()
	for _, c := range []ingest.Condition{ingest.Pre, ingest.Post} {
		s.reports.Forget(c.Slug())
	}
	s.metrics.ObserveAnalysis("ok")
	return a, nil
}

func (s *Session) process(ctx context.Context, c ingest.Cohort, p Params, now time.Time) (*Result, error) {
	start := s.clock.Now()
	tbl, hit := s.cache.Score(c, p.target(c.Condition))
	s.metrics.ObserveScore(c.Condition.Slug(), len(tbl.Scores), s.clock.Since(start), hit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Result{
		Condition: c.Condition,
		Name:      analysisName(c.Condition),
		Table:     tbl,
		Summary:   uniformity.Summarize(tbl),
		CacheHit:  hit,
		Charts:    make(map[string][]byte, 4),
	}
	if lo, hi, ok := uniformity.YRange(tbl.Samples, p.padding(c.Condition)); ok {
		r.YRange = report.AxisRange{Lo: lo, Hi: hi, OK: true}
	}

	for _, k := range []uniformity.Kind{uniformity.TUS, uniformity.RUS} {
		dist, err := report.RenderHTML(report.DistributionChart(tbl, k, p.Charts))
		if err != nil {
			return nil, err
		}
		r.Charts[ChartKey(k, ViewDistribution)] = dist

		bp := uniformity.Profiles(tbl.Samples, tbl, k)
		prof, err := report.RenderHTML(report.ProfileChart(bp, k, tbl.TargetMean, r.YRange, p.Charts))
		if err != nil {
			return nil, err
		}
		r.Charts[ChartKey(k, ViewProfile)] = prof
	}

	doc, err := report.HTML(report.Interactive(s.reportInput(r, p.Filename, p.Charts, now)))
	if err != nil {
		return nil, err
	}
	r.Report = doc
	s.metrics.ObserveReport("interactive")
	return r, nil
}

func (s *Session) reportInput(r *Result, filename string, charts report.ChartOptions, now time.Time) report.Input {
	return report.Input{
		Title:  r.Title(),
		Source: filename,
		Table:  r.Table,
		YRange: r.YRange,
		Charts: charts,
		Now:    now,
	}
}
