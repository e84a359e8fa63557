// Package api serves the uniformity analysis over HTTP: upload a dataset
// into a session, then read its scores, summaries, charts and reports.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/uniformity.report/internal/config"
	"github.com/banshee-data/uniformity.report/internal/httputil"
	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/session"
	"github.com/banshee-data/uniformity.report/internal/timeutil"
)

// Options configure a Server. Store is required.
type Options struct {
	Store   *session.Store
	Config  *config.AnalysisConfig
	Metrics *monitoring.Metrics
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	Clock    timeutil.Clock
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

type Server struct {
	store    *session.Store
	cfg      *config.AnalysisConfig
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer
	clock    timeutil.Clock
	origins  []string
}

func NewServer(o Options) *Server {
	s := &Server{
		store:    o.Store,
		cfg:      o.Config,
		metrics:  o.Metrics,
		gatherer: o.Gatherer,
		clock:    o.Clock,
		origins:  o.AllowedOrigins,
	}
	if s.cfg == nil {
		s.cfg = config.EmptyAnalysisConfig()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, LoggingMiddleware, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.MethodNotAllowed(w)
	})

	r.Get("/healthz", s.healthz)
	r.Get("/version", s.showVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.showSession)
			r.Delete("/", s.deleteSession)
			r.Post("/upload", s.upload)
			r.Post("/clear", s.clearSession)
			r.Route("/{cohort}", func(r chi.Router) {
				r.Use(withCohort)
				r.Get("/scores", s.showScores)
				r.Get("/summary", s.showSummary)
				r.Get("/charts/{chart}", s.showChart)
				r.Get("/report", s.downloadReport)
				r.Post("/report/static", s.startStaticReport)
				r.Get("/report/static", s.showStaticReport)
			})
		})
	})
	return r
}

type ctxKey int

const (
	sessionKey ctxKey = iota
	cohortKey
)

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(chi.URLParam(r, "id"))
		if err != nil {
			httputil.NotFound(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func withCohort(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ingest.ParseCohort(chi.URLParam(r, "cohort"))
		if !ok {
			httputil.NotFound(w, "unknown cohort "+chi.URLParam(r, "cohort"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cohortKey, c)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey).(*session.Session)
}

func cohortFrom(r *http.Request) ingest.Condition {
	return r.Context().Value(cohortKey).(ingest.Condition)
}
