// Package session isolates the analyses of different callers. Each session
// owns its score cache, its current analysis and its background reports;
// nothing is shared between sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/report"
	"github.com/banshee-data/uniformity.report/internal/timeutil"
	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

var (
	// ErrNotFound is returned for an unknown or expired session id.
	ErrNotFound = errors.New("session not found")
	// ErrNoAnalysis is returned when a session has no processed upload.
	ErrNoAnalysis = errors.New("no processed data")
)

// Options configure a Store. Zero values select defaults.
type Options struct {
	// TTL is the idle time after which a session expires. <= 0 never expires.
	TTL           time.Duration
	CacheEntries  int
	ReportWorkers int
	Clock         timeutil.Clock
	Metrics       *monitoring.Metrics
}

// Session is one caller's isolated workspace.
type Session struct {
	ID      string
	Created time.Time

	clock   timeutil.Clock
	metrics *monitoring.Metrics
	cache   *uniformity.Cache
	reports *report.Generator

	mu       sync.Mutex
	lastUsed time.Time
	analysis *Analysis
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// Analysis returns the current analysis.
func (s *Session) Analysis() (*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysis == nil {
		return nil, ErrNoAnalysis
	}
	return s.analysis, nil
}

// Result returns the current result of cohort c.
func (s *Session) Result(c ingest.Condition) (*Result, error) {
	a, err := s.Analysis()
	if err != nil {
		return nil, err
	}
	r := a.Result(c)
	if r == nil {
		return nil, fmt.Errorf("unknown cohort %q", c)
	}
	return r, nil
}

// Clear drops the processed data, the cached tables and any static reports.
func (s *Session) Clear() {
	s.mu.Lock()
	s.analysis = nil
	s.mu.Unlock()
	s.cache.Purge()
	for _, c := range []ingest.Condition{ingest.Pre, ingest.Post} {
		s.reports.Forget(c.Slug())
	}
}

// CacheStats reports the session cache hits and misses.
func (s *Session) CacheStats() (hits, misses uint64) {
	return s.cache.Stats()
}

// StartStaticReport begins background PNG report generation for c. It
// returns false if one is already running.
func (s *Session) StartStaticReport(c ingest.Condition) (bool, error) {
	a, err := s.Analysis()
	if err != nil {
		return false, err
	}
	r := a.Result(c)
	if r == nil {
		return false, fmt.Errorf("unknown cohort %q", c)
	}
	started := s.reports.Start(c.Slug(), s.reportInput(r, a.Filename, report.ChartOptions{}, s.clock.Now()))
	if started {
		s.metrics.ObserveReport("static")
	}
	return started, nil
}

// StaticReport returns the progress of the static report for c and, once
// finished, the document.
func (s *Session) StaticReport(c ingest.Condition) (report.Progress, []byte, error) {
	p, err := s.reports.Progress(c.Slug())
	if err != nil {
		return report.Progress{}, nil, err
	}
	doc, err := s.reports.Result(c.Slug())
	if errors.Is(err, report.ErrNotReady) {
		return p, nil, nil
	}
	if err != nil {
		return p, nil, err
	}
	return p, doc, nil
}

// WaitStaticReport blocks until the static report for c finishes.
func (s *Session) WaitStaticReport(ctx context.Context, c ingest.Condition) error {
	return s.reports.Wait(ctx, c.Slug())
}

func (s *Session) close() {
	s.reports.Close()
}

// Store holds live sessions.
type Store struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty store.
func NewStore(o Options) *Store {
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.CacheEntries <= 0 {
		o.CacheEntries = uniformity.DefaultCacheEntries
	}
	if o.ReportWorkers <= 0 {
		o.ReportWorkers = report.DefaultWorkers
	}
	return &Store{opts: o, sessions: make(map[string]*Session)}
}

// Create starts a new session.
func (st *Store) Create() (*Session, error) {
	cache, err := uniformity.NewCache(st.opts.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	now := st.opts.Clock.Now()
	s := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		clock:    st.opts.Clock,
		metrics:  st.opts.Metrics,
		cache:    cache,
		reports:  report.NewGenerator(st.opts.ReportWorkers, st.opts.Clock),
		lastUsed: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()
	st.opts.Metrics.SetActiveSessions(n)
	return s, nil
}

// Get returns the live session id and marks it used. An expired session is
// removed and reported as ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if st.expired(s, st.opts.Clock.Now()) {
		st.remove(id)
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Clear drops the processed data of session id but keeps the session.
func (st *Store) Clear(id string) error {
	s, err := st.Get(id)
	if err != nil {
		return err
	}
	s.Clear()
	return nil
}

// Delete ends session id.
func (st *Store) Delete(id string) error {
	if !st.remove(id) {
		return ErrNotFound
	}
	return nil
}

// Len returns the number of sessions held, expired or not.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.opts.TTL > 0 && s.idle(now) > st.opts.TTL
}

func (st *Store) remove(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	st.opts.Metrics.SetActiveSessions(n)
	return true
}

// Sweep removes every expired session and returns how many were removed.
func (st *Store) Sweep() int {
	now := st.opts.Clock.Now()
	st.mu.Lock()
	var stale []string
	for id, s := range st.sessions {
		if st.expired(s, now) {
			stale = append(stale, id)
		}
	}
	st.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if st.remove(id) {
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := st.opts.Clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if n := st.Sweep(); n > 0 {
				monitoring.Logf("session: expired %d idle session(s)", n)
			}
		}
	}
}

// Close ends every session.
func (st *Store) Close() {
	st.mu.Lock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	st.mu.Unlock()
	for _, id := range ids {
		st.remove(id)
	}
}
