package report

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// Input is everything needed to build one cohort's report.
type Input struct {
	Title  string
	Source string
	Table  *uniformity.Table
	YRange AxisRange
	Charts ChartOptions
	Now    time.Time
}

func (in Input) document() Document {
	d := Document{
		Title:     in.Title,
		Source:    in.Source,
		Generated: in.Now,
		Summary:   uniformity.Summarize(in.Table),
	}
	if !in.Table.Empty() {
		d.Scores = in.Table.Scores
	}
	return d
}

func (in Input) profiles(k uniformity.Kind) []uniformity.BandProfile {
	if in.Table == nil {
		return nil
	}
	return uniformity.Profiles(in.Table.Samples, in.Table, k)
}

func (in Input) target() float64 {
	if in.Table == nil {
		return 0
	}
	return in.Table.TargetMean
}

func profileHeight(bands int) int {
	return max(400, 370*bands+40)
}

var kinds = []uniformity.Kind{uniformity.TUS, uniformity.RUS}

// Interactive builds a report whose charts are embedded go-echarts pages.
// A chart that fails to render is left unavailable instead of failing the
// whole report.
func Interactive(in Input) Document {
	d := in.document()
	if d.Empty() {
		return d
	}

	dist := Section{Heading: "Score Distributions"}
	prof := Section{Heading: "Thickness Profiles"}
	for _, k := range kinds {
		dist.Figures = append(dist.Figures, Figure{
			Title:  fmt.Sprintf("%s Score Distribution", k),
			Page:   renderPage(DistributionChart(in.Table, k, in.Charts), "distribution", k),
			Height: 540,
		})

		bp := in.profiles(k)
		prof.Figures = append(prof.Figures, Figure{
			Title:  fmt.Sprintf("%s Thickness Profiles by Category", k),
			Page:   renderPage(ProfileChart(bp, k, in.target(), in.YRange, in.Charts), "profile", k),
			Height: profileHeight(len(bp)),
		})
	}
	d.Sections = []Section{dist, prof}
	return d
}

func renderPage(r Renderer, what string, k uniformity.Kind) string {
	b, err := RenderHTML(r)
	if err != nil {
		monitoring.Logf("report: %s %s chart: %v", k, what, err)
		return ""
	}
	return string(b)
}

// Static builds a report whose charts are PNG images. Chart conversion runs
// on at most workers goroutines and calls progress, if non-nil, after each
// chart with the number done so far. A chart that fails to convert is left
// unavailable. Only cancellation of ctx is returned as an error.
func Static(ctx context.Context, in Input, workers int, progress func(done, total int)) (Document, error) {
	d := in.document()
	if d.Empty() {
		return d, nil
	}
	if workers <= 0 {
		workers = 1
	}

	type task struct {
		section int
		title   string
		run     func() ([]template.URL, error)
	}
	var tasks []task
	for _, k := range kinds {
		tasks = append(tasks, task{
			section: 0,
			title:   fmt.Sprintf("%s Score Distribution", k),
			run: func() ([]template.URL, error) {
				png, err := DistributionPNG(in.Table, k)
				if err != nil {
					return nil, err
				}
				return []template.URL{dataURL(png)}, nil
			},
		})
	}
	for _, k := range kinds {
		tasks = append(tasks, task{
			section: 1,
			title:   fmt.Sprintf("%s Thickness Profiles by Category", k),
			run: func() ([]template.URL, error) {
				bps := in.profiles(k)
				urls := make([]template.URL, 0, len(bps))
				for _, bp := range bps {
					png, err := ProfilePNG(bp, k, in.target(), in.YRange)
					if err != nil {
						return nil, err
					}
					urls = append(urls, dataURL(png))
				}
				return urls, nil
			},
		})
	}

	figures := make([]Figure, len(tasks))
	done := make(chan struct{}, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			figures[i].Title = t.title
			urls, err := t.run()
			if err != nil {
				monitoring.Logf("report: static %q: %v", t.title, err)
			} else {
				figures[i].Images = urls
			}
			done <- struct{}{}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	completed := 0
	for {
		select {
		case <-done:
			completed++
			if progress != nil {
				progress(completed, len(tasks))
			}
		case err := <-waitErr:
			for len(done) > 0 {
				<-done
				completed++
				if progress != nil {
					progress(completed, len(tasks))
				}
			}
			if err != nil {
				return Document{}, fmt.Errorf("static charts: %w", err)
			}
			d.Sections = []Section{{Heading: "Score Distributions"}, {Heading: "Thickness Profiles"}}
			for i, t := range tasks {
				d.Sections[t.section].Figures = append(d.Sections[t.section].Figures, figures[i])
			}
			return d, nil
		}
	}
}
