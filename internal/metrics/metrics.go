// Package metrics exports run measurements to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/katalvlaran/reservoir/solver"
)

const namespace = "reservoir"

// Recorder implements engine.Observer and an HTTP middleware on one registry.
type Recorder struct {
	reg          *prometheus.Registry
	solves       *prometheus.CounterVec
	solveSeconds *prometheus.HistogramVec
	nodes        *prometheus.HistogramVec
	simulations  *prometheus.CounterVec
	simSeconds   *prometheus.HistogramVec
	requests     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, with the Go and process
// collectors when runtime is true.
func New(runtime bool) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Optimizations by mode and final status.",
		}, []string{"mode", "status"}),
		solveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of one optimization.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"mode"}),
		nodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_nodes",
			Help:      "Branch-and-bound nodes explored per optimization.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"mode"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Greedy simulations by mode.",
		}, []string{"mode"}),
		simSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of one simulation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"mode"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
	}
	r.reg.MustRegister(r.solves, r.solveSeconds, r.nodes, r.simulations, r.simSeconds, r.requests)
	if runtime {
		r.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return r
}

// ObserveSolve records one optimization.
func (r *Recorder) ObserveSolve(mode string, status solver.Status, nodes int, elapsed time.Duration) {
	r.solves.WithLabelValues(mode, status.String()).Inc()
	r.solveSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
	r.nodes.WithLabelValues(mode).Observe(float64(nodes))
}

// ObserveSimulation records one simulator run.
func (r *Recorder) ObserveSimulation(mode string, elapsed time.Duration) {
	r.simulations.WithLabelValues(mode).Inc()
	r.simSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Middleware counts requests by chi route pattern. Unmatched requests are
// labelled "unmatched" to keep cardinality bounded.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		r.requests.WithLabelValues(route, req.Method, strconv.Itoa(code)).Inc()
	})
}
