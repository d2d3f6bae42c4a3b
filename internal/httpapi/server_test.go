package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/reservoir/engine"
	"github.com/katalvlaran/reservoir/internal/httpapi"
	"github.com/katalvlaran/reservoir/internal/metrics"
	"github.com/katalvlaran/reservoir/internal/runstore"
	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/solver"
)

const oneMonth = `
name: one-month
reservoir:
  capacity: 100
  initial_storage: 50
series:
  inflow: [30]
  outflow: [5]
  demand:
    urban: [10]
    agricultural: [20]
    hydropower: [5]
policy:
  mode: min-storage-shortage
`

type APISuite struct {
	suite.Suite
	srv   *httptest.Server
	store *runstore.MemoryStore
	rec   *metrics.Recorder
}

func (s *APISuite) SetupTest() {
	s.store = runstore.NewMemoryStore()
	s.rec = metrics.New(false)
	eng := engine.New(engine.WithObserver(s.rec))
	s.srv = httptest.NewServer(httpapi.New(eng, s.store, httpapi.WithMetrics(s.rec)).Router())
}

func (s *APISuite) TearDownTest() { s.srv.Close() }

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) post(path, body string) *http.Response {
	resp, err := http.Post(s.srv.URL+path, "application/yaml", strings.NewReader(body))
	s.Require().NoError(err)

	return resp
}

func (s *APISuite) get(path string) *http.Response {
	resp, err := http.Get(s.srv.URL + path)
	s.Require().NoError(err)

	return resp
}

func (s *APISuite) decodeRun(resp *http.Response) runstore.Run {
	defer resp.Body.Close()
	var run runstore.Run
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&run))

	return run
}

func (s *APISuite) TestOptimize_ArchivesRun() {
	resp := s.post("/v1/plans", oneMonth)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	loc := resp.Header.Get("Location")
	run := s.decodeRun(resp)

	s.Equal(runstore.KindOptimize, run.Kind)
	s.Equal("one-month", run.Scenario)
	s.Require().Len(run.Plans, 1)
	p := run.Plans[0]
	s.Equal(solver.Optimal, p.Status)
	s.Equal(plan.Optimizer, p.Source)
	s.InDelta(40, p.Steps[0].Storage, 1e-6)
	s.Equal("/v1/runs/"+run.ID.String(), loc)

	resp = s.get(loc)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	back := s.decodeRun(resp)
	s.Equal(run.ID, back.ID)
	s.Equal(policy.MinShortage.String(), back.Plans[0].ModeName)
}

func (s *APISuite) TestOptimize_JSONBodyAndModeOverride() {
	body := `{"reservoir":{"capacity":100,"initial_storage":50},
	"series":{"inflow":[30],"outflow":[5],"demand":{"urban":[10],"agricultural":[20],"hydropower":[5]}}}`
	resp := s.post("/v1/plans?mode=min-unmet-demand", body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	run := s.decodeRun(resp)
	s.Equal(policy.MinUnmetDemand.String(), run.Plans[0].ModeName)
}

func (s *APISuite) TestOptimize_BodyReadAsSent() {
	s.T().Setenv("RESERVOIR_RESERVOIR_MIN_STORAGE", "60")

	resp := s.post("/v1/plans", oneMonth)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	run := s.decodeRun(resp)
	s.InDelta(40, run.Plans[0].Steps[0].Storage, 1e-6)
}

func (s *APISuite) TestOptimize_RejectsNegativeDemand() {
	body := strings.Replace(oneMonth, "urban: [10]", "urban: [-10]", 1)
	resp := s.post("/v1/plans", body)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(b), "invalid scenario")
	s.Contains(string(b), "Urban")
}

func (s *APISuite) TestSimulate() {
	resp := s.post("/v1/simulations", oneMonth)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	run := s.decodeRun(resp)
	s.Equal(plan.Simulator, run.Plans[0].Source)
	s.Equal([3]float64{10, 20, 5}, run.Plans[0].Steps[0].Release)
}

func (s *APISuite) TestCompare_OrderFollowsQuery() {
	resp := s.post("/v1/comparisons?modes=min-unmet-demand,min-storage-shortage", oneMonth)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	run := s.decodeRun(resp)
	s.Require().Len(run.Plans, 2)
	s.Equal(policy.MinUnmetDemand.String(), run.Plans[0].ModeName)
	s.Equal(policy.MinShortage.String(), run.Plans[1].ModeName)
}

func (s *APISuite) TestLP() {
	resp := s.post("/v1/lp", oneMonth)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.Contains(string(b), "Subject To")
	s.Contains(string(b), "balance_1")
	s.NotEmpty(resp.Header.Get("ETag"))
}

func (s *APISuite) TestBadRequests() {
	cases := map[string]struct {
		path, body string
	}{
		"yaml":     {"/v1/plans", "reservoir: [unclosed"},
		"table":    {"/v1/plans", strings.Replace(oneMonth, "initial_storage: 50", "initial_storage: 500", 1)},
		"mode":     {"/v1/plans?mode=fastest", oneMonth},
		"modes":    {"/v1/comparisons?modes=min-storage-shortage,fastest", oneMonth},
		"lp mode":  {"/v1/lp?mode=fastest", oneMonth},
		"sim mode": {"/v1/simulations?mode=fastest", oneMonth},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			resp := s.post(tc.path, tc.body)
			defer resp.Body.Close()
			s.Equal(http.StatusBadRequest, resp.StatusCode)

			var e map[string]string
			s.Require().NoError(json.NewDecoder(resp.Body).Decode(&e))
			s.NotEmpty(e["error"])
		})
	}
}

func (s *APISuite) TestRuns_Lookup() {
	resp := s.get("/v1/runs/not-a-uuid")
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.get("/v1/runs/" + uuid.NewString())
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.get("/v1/runs")
	var runs []runstore.Run
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&runs))
	resp.Body.Close()
	s.Empty(runs)

	s.post("/v1/simulations", oneMonth).Body.Close()
	s.post("/v1/plans", oneMonth).Body.Close()
	resp = s.get("/v1/runs?limit=1")
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&runs))
	resp.Body.Close()
	s.Require().Len(runs, 1)
	s.Equal(runstore.KindOptimize, runs[0].Kind)

	resp = s.get("/v1/runs?limit=-1")
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestHealthAndMetrics() {
	resp := s.get("/healthz")
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	s.post("/v1/plans", oneMonth).Body.Close()
	resp = s.get("/metrics")
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(b), `reservoir_solves_total{mode="min-storage-shortage",status="optimal"} 1`)
	s.Contains(string(b), `route="/v1/plans"`)
}

type downStore struct{ *runstore.MemoryStore }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_StoreDown(t *testing.T) {
	srv := httptest.NewServer(httpapi.New(engine.New(), downStore{runstore.NewMemoryStore()}).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
