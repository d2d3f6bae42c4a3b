// Package httpapi exposes the engine over HTTP.
//
//	POST /v1/plans          optimize a scenario (?mode= overrides its mode)
//	POST /v1/simulations    simulate a scenario
//	POST /v1/comparisons    optimize a scenario under several modes (?modes=a,b)
//	POST /v1/lp             render the model of a scenario in LP format
//	GET  /v1/runs           newest archived runs (?limit=)
//	GET  /v1/runs/{id}      one archived run
//	GET  /healthz           store connectivity
//	GET  /metrics           Prometheus exposition, when a recorder is attached
//
// Request bodies are scenario documents, YAML or JSON, with the same keys as
// scenario files.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/katalvlaran/reservoir/engine"
	"github.com/katalvlaran/reservoir/internal/config"
	"github.com/katalvlaran/reservoir/internal/metrics"
	"github.com/katalvlaran/reservoir/internal/runstore"
	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

// MaxBodyBytes bounds a scenario upload.
const MaxBodyBytes = 8 << 20

// Server wires the engine and the run archive to a router.
type Server struct {
	eng     *engine.Engine
	store   runstore.Store
	rec     *metrics.Recorder
	log     logr.Logger
	timeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts /metrics and counts requests.
func WithMetrics(rec *metrics.Recorder) Option { return func(s *Server) { s.rec = rec } }

// WithLogger attaches a request logger.
func WithLogger(l logr.Logger) Option { return func(s *Server) { s.log = l } }

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

// New returns a Server.
func New(eng *engine.Engine, store runstore.Store, opts ...Option) *Server {
	s := &Server{eng: eng, store: store, log: logr.Discard(), timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Router builds the handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.rec != nil {
		r.Use(s.rec.Middleware)
		r.Method(http.MethodGet, "/metrics", s.rec.Handler())
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Post("/plans", s.handleOptimize)
		r.Post("/simulations", s.handleSimulate)
		r.Post("/comparisons", s.handleCompare)
		r.Post("/lp", s.handleLP)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.V(1).Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]any{
		"ok":   true,
		"time": time.Now().UTC(),
	}
	if err := s.store.Ping(ctx); err != nil {
		status["ok"] = false
		status["store"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// request is a decoded scenario ready to run.
type request struct {
	sc  *config.Scenario
	tab *series.Table
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (request, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	sc, err := config.ParseRequest(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return request{}, false
	}
	if m := r.URL.Query().Get("mode"); m != "" {
		sc.Policy.Mode = m
	}
	tab, err := sc.Table()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return request{}, false
	}

	return request{sc: sc, tab: tab}, true
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	cfg, err := req.sc.Config()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.eng.Optimize(r.Context(), req.tab, cfg)
	if err != nil {
		s.respondRunError(w, err)
		return
	}
	s.archive(w, r, runstore.KindOptimize, req.sc.Name, p)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	cfg, err := req.sc.Config()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.eng.Simulate(r.Context(), req.tab, cfg)
	if err != nil {
		s.respondRunError(w, err)
		return
	}
	s.archive(w, r, runstore.KindSimulate, req.sc.Name, p)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	modes, err := parseModes(r.URL.Query().Get("modes"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfgs := make([]policy.Config, len(modes))
	for i, m := range modes {
		if cfgs[i], err = req.sc.ConfigFor(m); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	plans, err := s.eng.Compare(r.Context(), req.tab, cfgs)
	if err != nil {
		s.respondRunError(w, err)
		return
	}
	s.archive(w, r, runstore.KindComparison, req.sc.Name, plans...)
}

func (s *Server) handleLP(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	cfg, err := req.sc.Config()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := model.Build(req.tab, cfg)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", strconv.Quote(pr.Model.Fingerprint()))
	w.WriteHeader(http.StatusOK)
	_ = pr.Model.WriteLP(w)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := s.store.Get(r.Context(), id)
	if errors.Is(err, runstore.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request, kind runstore.Kind, scenario string, plans ...*plan.Plan) {
	run, err := s.store.Save(r.Context(), runstore.Run{Kind: kind, Scenario: scenario, Plans: plans})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Location", "/v1/runs/"+run.ID.String())
	respondJSON(w, http.StatusCreated, run)
}

func (s *Server) respondRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}

func parseModes(list string) ([]policy.Mode, error) {
	if strings.TrimSpace(list) == "" {
		return policy.Modes(), nil
	}
	var out []policy.Mode
	for _, name := range strings.Split(list, ",") {
		m, err := policy.ParseMode(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("modes: %w", err)
		}
		out = append(out, m)
	}

	return out, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
