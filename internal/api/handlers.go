package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/banshee-data/uniformity.report/internal/httputil"
	"github.com/banshee-data/uniformity.report/internal/ingest"
	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/report"
	"github.com/banshee-data/uniformity.report/internal/session"
	"github.com/banshee-data/uniformity.report/internal/uniformity"
	"github.com/banshee-data/uniformity.report/internal/version"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Current())
}

type sessionResponse struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Analysis  *analysisResponse `json:"analysis"`
}

type cohortInfo struct {
	Sensors    int     `json:"sensors"`
	TargetMean float64 `json:"target_mean"`
	CacheHit   bool    `json:"cache_hit"`
}

type analysisResponse struct {
	Filename string                `json:"filename"`
	Dataset  ingest.DatasetSummary `json:"dataset"`
	Pre      cohortInfo            `json:"pre"`
	Post     cohortInfo            `json:"post"`
}

func newAnalysisResponse(a *session.Analysis) *analysisResponse {
	info := func(r *session.Result) cohortInfo {
		return cohortInfo{Sensors: len(r.Table.Scores), TargetMean: r.Table.TargetMean, CacheHit: r.CacheHit}
	}
	return &analysisResponse{
		Filename: a.Filename,
		Dataset:  a.Dataset,
		Pre:      info(a.Pre),
		Post:     info(a.Post),
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, CreatedAt: sess.Created})
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	resp := sessionResponse{ID: sess.ID, CreatedAt: sess.Created}
	if a, err := sess.Analysis(); err == nil {
		resp.Analysis = newAnalysisResponse(a)
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(sessionFrom(r).ID); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Clear()
	httputil.WriteJSONOK(w, map[string]bool{"cleared": true})
}

// formTarget reads an optional target mean override from the upload form.
func formTarget(r *http.Request, field string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %q", field, raw)
	}
	return v, nil
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.GetMaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	params := session.ParamsFromConfig(s.cfg)
	params.Filename = hdr.Filename
	if params.TargetMeanPre, err = formTarget(r, "target_mean_pre", params.TargetMeanPre); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if params.TargetMeanPost, err = formTarget(r, "target_mean_post", params.TargetMeanPost); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ds, err := ingest.ReadCSV(file)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveValidationError()
		}
		s.metrics.ObserveAnalysis("rejected")
		httputil.BadRequest(w, err.Error())
		return
	}

	a, err := sessionFrom(r).Process(r.Context(), ds, params)
	if err != nil {
		monitoring.Logf("api: process %s: %v", hdr.Filename, err)
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, newAnalysisResponse(a))
}

// result resolves the cohort result of the request, writing the error
// response itself when there is none.
func (s *Server) result(w http.ResponseWriter, r *http.Request) (*session.Result, bool) {
	res, err := sessionFrom(r).Result(cohortFrom(r))
	if err != nil {
		if errors.Is(err, session.ErrNoAnalysis) {
			httputil.NotFound(w, "no processed data, upload a dataset first")
			return nil, false
		}
		httputil.NotFound(w, err.Error())
		return nil, false
	}
	return res, true
}

type scoresResponse struct {
	Condition      ingest.Condition         `json:"condition"`
	TargetMean     float64                  `json:"target_mean"`
	GlobalMaxRange float64                  `json:"global_max_range"`
	Scores         []uniformity.SensorScore `json:"scores"`
}

func (s *Server) showScores(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	scores := res.Table.Scores
	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		k, err := uniformity.ParseKind(sortBy)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		scores = uniformity.SortBestFirst(scores, k)
	}
	if scores == nil {
		scores = []uniformity.SensorScore{}
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		httputil.WriteJSONOK(w, scoresResponse{
			Condition:      res.Condition,
			TargetMean:     res.Table.TargetMean,
			GlobalMaxRange: res.Table.GlobalMaxRange,
			Scores:         scores,
		})
	case "csv":
		b, err := report.ScoresCSV(scores)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteCSV(w, b, fmt.Sprintf("scores_%s.csv", res.Condition.Slug()))
	default:
		httputil.BadRequest(w, fmt.Sprintf("unsupported format %q", format))
	}
}

type summaryResponse struct {
	uniformity.Summary
	TUSDistribution map[string]int `json:"tus_distribution"`
	RUSDistribution map[string]int `json:"rus_distribution"`
}

func distribution(t *uniformity.Table, k uniformity.Kind) map[string]int {
	counts := uniformity.Distribution(t, k)
	out := make(map[string]int, uniformity.NumBands)
	for _, b := range uniformity.Bands() {
		out[b.String()] = counts[b]
	}
	return out
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, summaryResponse{
		Summary:         res.Summary,
		TUSDistribution: distribution(res.Table, uniformity.TUS),
		RUSDistribution: distribution(res.Table, uniformity.RUS),
	})
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "chart")
	body, found := res.Charts[strings.ToLower(name)]
	if !found {
		httputil.NotFound(w, fmt.Sprintf("unknown chart %q", name))
		return
	}
	httputil.WriteHTML(w, body, "")
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	httputil.WriteHTML(w, res.Report, res.Filename(s.clock.Now()))
}

func (s *Server) startStaticReport(w http.ResponseWriter, r *http.Request) {
	sess, c := sessionFrom(r), cohortFrom(r)
	started, err := sess.StartStaticReport(c)
	if err != nil {
		if errors.Is(err, session.ErrNoAnalysis) {
			httputil.NotFound(w, "no processed data, upload a dataset first")
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	p, _, err := sess.StaticReport(c)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"started": started, "progress": p})
}

func (s *Server) showStaticReport(w http.ResponseWriter, r *http.Request) {
	sess, c := sessionFrom(r), cohortFrom(r)
	p, doc, err := sess.StaticReport(c)
	if err != nil {
		if errors.Is(err, report.ErrNotStarted) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	switch {
	case doc != nil:
		res, err := sess.Result(c)
		name := ""
		if err == nil {
			name = report.Filename(res.Name+" static", s.clock.Now())
		}
		httputil.WriteHTML(w, doc, name)
	case p.Error != "":
		httputil.InternalServerError(w, p.Error)
	default:
		httputil.WriteJSON(w, http.StatusAccepted, p)
	}
}
