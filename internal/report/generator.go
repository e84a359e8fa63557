package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/timeutil"
)

// DefaultWorkers is the number of charts converted concurrently.
const DefaultWorkers = 4

var (
	// ErrNotStarted is returned for a key that has never been started.
	ErrNotStarted = errors.New("report generation not started")
	// ErrNotReady is returned while a report is still being generated or
	// when generation failed.
	ErrNotReady = errors.New("report not ready")
)

// Progress is the observable state of one background generation.
type Progress struct {
	Status     string    `json:"status"`
	Percentage int       `json:"percentage"`
	Completed  bool      `json:"completed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"start_time"`
}

type job struct {
	progress Progress
	doc      []byte
	done     chan struct{}
}

// Generator builds static reports in the background, one job per key.
type Generator struct {
	workers int
	clock   timeutil.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewGenerator returns a generator converting charts on workers goroutines.
// workers <= 0 uses DefaultWorkers and a nil clock uses the wall clock.
func NewGenerator(workers int, clock timeutil.Clock) *Generator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		workers: workers,
		clock:   clock,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
}

// Start begins generating a report for key. It returns false without doing
// anything if a job for key is already running. A finished job is replaced.
func (g *Generator) Start(key string, in Input) bool {
	g.mu.Lock()
	if j, ok := g.jobs[key]; ok && !j.progress.Completed {
		g.mu.Unlock()
		return false
	}
	if g.ctx.Err() != nil {
		g.mu.Unlock()
		return false
	}
	j := &job{
		progress: Progress{Status: "Starting static report generation...", StartedAt: g.clock.Now()},
		done:     make(chan struct{}),
	}
	g.jobs[key] = j
	g.wg.Add(1)
	g.mu.Unlock()

	go g.run(key, j, in)
	return true
}

func (g *Generator) run(key string, j *job, in Input) {
	defer g.wg.Done()
	defer close(j.done)

	g.update(j, func(p *Progress) {
		p.Status = "Generating static charts..."
		p.Percentage = 10
	})

	g.mu.Lock()
	started := j.progress.StartedAt
	g.mu.Unlock()

	doc, err := Static(g.ctx, in, g.workers, func(done, total int) {
		elapsed := g.clock.Since(started).Seconds()
		remaining := 0.0
		if done > 0 {
			remaining = elapsed / float64(done) * float64(total-done)
		}
		g.update(j, func(p *Progress) {
			p.Percentage = 10 + 80*done/total
			p.Status = fmt.Sprintf("Converted %d/%d charts (~%.0fs remaining)", done, total, remaining)
		})
	})
	if err == nil {
		g.update(j, func(p *Progress) {
			p.Status = "Assembling report..."
			p.Percentage = 95
		})
		var b []byte
		if b, err = HTML(doc); err == nil {
			g.mu.Lock()
			j.doc = b
			j.progress.Status = "Report ready for download!"
			j.progress.Percentage = 100
			j.progress.Completed = true
			g.mu.Unlock()
			return
		}
	}

	monitoring.Logf("report: background generation for %s failed: %v", key, err)
	g.update(j, func(p *Progress) {
		p.Status = fmt.Sprintf("Error: %v", err)
		p.Error = err.Error()
		p.Completed = true
	})
}

func (g *Generator) update(j *job, fn func(*Progress)) {
	g.mu.Lock()
	fn(&j.progress)
	g.mu.Unlock()
}

// Progress returns a snapshot of the job for key.
func (g *Generator) Progress(key string) (Progress, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	j, ok := g.jobs[key]
	if !ok {
		return Progress{}, ErrNotStarted
	}
	return j.progress, nil
}

// Processing reports whether a job for key is running.
func (g *Generator) Processing(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	j, ok := g.jobs[key]
	return ok && !j.progress.Completed
}

// Result returns the finished report for key.
func (g *Generator) Result(key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	j, ok := g.jobs[key]
	if !ok {
		return nil, ErrNotStarted
	}
	if j.doc == nil {
		return nil, ErrNotReady
	}
	return j.doc, nil
}

// Wait blocks until the job for key finishes or ctx is done.
func (g *Generator) Wait(ctx context.Context, key string) error {
	g.mu.Lock()
	j, ok := g.jobs[key]
	g.mu.Unlock()
	if !ok {
		return ErrNotStarted
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Forget drops any finished state for key. A running job keeps running but
// its result is discarded.
func (g *Generator) Forget(key string) {
	g.mu.Lock()
	delete(g.jobs, key)
	g.mu.Unlock()
}

// Close cancels running jobs and waits for them to exit.
func (g *Generator) Close() {
	g.cancel()
	g.wg.Wait()
}
