package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/uniformity.report/internal/fsutil"
	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/report"
	"github.com/banshee-data/uniformity.report/internal/session"
	"github.com/banshee-data/uniformity.report/internal/timeutil"
)

type scoreOptions struct {
	in         string
	out        string
	configPath string
	static     bool

	// Target overrides; nil keeps the configured value.
	pre  *float64
	post *float64
}

func handleScore(args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	in := fs.String("in", "", "Input CSV dataset (required)")
	out := fs.String("out", ".", "Output directory")
	configPath := fs.String("config", "", "Analysis config JSON file")
	pre := fs.Float64("pre", 0, "Pre cohort target mean in μm (default from config, 120)")
	post := fs.Float64("post", 0, "Post cohort target mean in μm (default from config, 17.5)")
	static := fs.Bool("static", false, "Also write static PNG reports")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "score: -in is required")
		fs.Usage()
		os.Exit(2)
	}

	o := scoreOptions{in: *in, out: *out, configPath: *configPath, static: *static}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pre":
			o.pre = pre
		case "post":
			o.post = post
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := runScore(ctx, fsutil.OSFileSystem{}, timeutil.RealClock{}, o, os.Stdout); err != nil {
		log.Fatalf("score: %v", err)
	}
}

// runScore scores o.in and writes scores_pre.csv, scores_post.csv and the
// HTML reports of both cohorts into o.out.
func runScore(ctx context.Context, fsys fsutil.FileSystem, clock timeutil.Clock, o scoreOptions, stdout io.Writer) error {
	cfg, err := loadConfig(fsys, o.configPath)
	if err != nil {
		return err
	}

	data, err := fsys.ReadFile(o.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	ds, err := ingest.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", o.in, err)
	}

	params := session.ParamsFromConfig(cfg)
	params.Filename = filepath.Base(o.in)
	if o.pre != nil {
		params.TargetMeanPre = *o.pre
	}
	if o.post != nil {
		params.TargetMeanPost = *o.post
	}

	store := session.NewStore(session.Options{Clock: clock, ReportWorkers: cfg.GetReportWorkers()})
	defer store.Close()
	sess, err := store.Create()
	if err != nil {
		return err
	}
	a, err := sess.Process(ctx, ds, params)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	if err := fsys.MkdirAll(o.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	write := func(name string, body []byte) error {
		path := filepath.Join(o.out, name)
		if err := fsys.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
		return nil
	}

	day := clock.Now()
	for _, c := range []ingest.Condition{ingest.Pre, ingest.Post} {
		r := a.Result(c)
		fmt.Fprintf(stdout, "%s: %d sensors, target %g μm, mean TUS %.3f, mean RUS %.3f\n",
			r.Name, r.Summary.Sensors, r.Summary.TargetMean, r.Summary.MeanTUS, r.Summary.MeanRUS)

		csvBody, err := report.ScoresCSV(r.Table.Scores)
		if err != nil {
			return err
		}
		if err := write(fmt.Sprintf("scores_%s.csv", c.Slug()), csvBody); err != nil {
			return err
		}
		if err := write(r.Filename(day), r.Report); err != nil {
			return err
		}

		if !o.static {
			continue
		}
		if _, err := sess.StartStaticReport(c); err != nil {
			return err
		}
		if err := sess.WaitStaticReport(ctx, c); err != nil {
			return err
		}
		p, doc, err := sess.StaticReport(c)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("static %s report: %s", r.Name, p.Error)
		}
		if err := write(report.Filename(r.Name+" static", day), doc); err != nil {
			return err
		}
	}
	return nil
}
