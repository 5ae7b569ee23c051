package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
	"github.com/pulseguard/pulseguard/internal/domain/status"
	"github.com/pulseguard/pulseguard/internal/probe"
	"github.com/pulseguard/pulseguard/internal/services/checker"
	"github.com/pulseguard/pulseguard/internal/services/stats"
	"github.com/pulseguard/pulseguard/internal/services/stream"
)

type gwServers struct {
	rows    []*server.Server
	listErr error
}

func (f *gwServers) GetByID(_ context.Context, id int64) (*server.Server, error) {
	for _, s := range f.rows {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *gwServers) ListActive(context.Context) ([]*server.Server, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*server.Server
	for _, s := range f.rows {
		if s.State == server.StateActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *gwServers) List(_ context.Context, flt server.Filter) ([]*server.Server, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*server.Server
	for _, id := range flt.IDs {
		for _, s := range f.rows {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (f *gwServers) Counts(context.Context) (int64, int64, error) {
	return int64(len(f.rows)), int64(len(f.rows)), nil
}

type gwPings struct {
	mu   sync.Mutex
	rows []*ping.Result
}

func (f *gwPings) Insert(_ context.Context, p *ping.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, p)
	return nil
}

func (f *gwPings) inserted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *gwPings) ListRecent(context.Context, ping.Filter) ([]*ping.Result, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) CountByStatus(context.Context, time.Time) (map[ping.Status]int64, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) UptimeByServer(context.Context, time.Time) ([]ping.UptimeAgg, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) LatencyOverall(context.Context, time.Time) (*ping.LatencyAgg, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) LatencyByServer(context.Context, time.Time) ([]ping.ServerLatency, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) RecentFailures(context.Context, time.Time, int) ([]*ping.Result, error) {
	return nil, errors.New("unused")
}

func (f *gwPings) TopFailing(context.Context, time.Time, int) ([]ping.FailureCount, error) {
	return nil, errors.New("unused")
}

type gwStatuses struct {
	mu   sync.Mutex
	rows map[int64]*status.ServerStatus
}

func (f *gwStatuses) GetOrCreate(_ context.Context, serverID int64) (*status.ServerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[int64]*status.ServerStatus)
	}
	st, ok := f.rows[serverID]
	if !ok {
		st = &status.ServerStatus{ServerID: serverID, Status: status.Unknown, UptimePercentage: 100}
		f.rows[serverID] = st
	}
	cp := *st
	return &cp, nil
}

func (f *gwStatuses) Update(_ context.Context, st *status.ServerStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *st
	f.rows[st.ServerID] = &cp
	return nil
}

func (f *gwStatuses) List(context.Context, status.Filter) ([]*status.ServerStatus, error) {
	return nil, errors.New("unused")
}

func (f *gwStatuses) CountByStatus(context.Context) (map[status.Status]int64, error) {
	return nil, errors.New("unused")
}

type gwProber struct{}

func (gwProber) Probe(context.Context, *server.Server) probe.Outcome {
	ms := 12.5
	code := 200
	return probe.Outcome{Status: ping.StatusSuccess, StatusCode: &code, ResponseTime: &ms}
}

func gwServer(id int64, st server.State) *server.Server {
	return &server.Server{
		ID:       id,
		Name:     fmt.Sprintf("srv-%d", id),
		Protocol: server.ProtocolHTTPS,
		Host:     "example.com",
		Port:     443,
		Path:     "/",
		Timeout:  5 * time.Second,
		State:    st,
	}
}

func triggerSetup(srvs *gwServers) (*checker.Usecase, *gwPings) {
	pings := &gwPings{}
	uc := &checker.Usecase{
		Servers:  srvs,
		Pings:    pings,
		Statuses: &gwStatuses{},
		Prober:   gwProber{},
		Log:      zap.NewNop(),
		Workers:  4,
	}
	return uc, pings
}

func triggerRouter(uc *checker.Usecase) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/checks/run", triggerHandler(uc, zap.NewNop()))
	return r
}

func postTrigger(r *gin.Engine, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/checks/run", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/checks/run", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return perform(r, req)
}

func TestTrigger_EmptyBodyChecksEveryActiveServer(t *testing.T) {
	uc, pings := triggerSetup(&gwServers{rows: []*server.Server{
		gwServer(1, server.StateActive),
		gwServer(2, server.StateActive),
		gwServer(3, server.StateInactive),
	}})

	w := postTrigger(triggerRouter(uc), "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp triggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Equal(t, []checker.CycleResult{
		{ServerID: 1, Status: ping.StatusSuccess},
		{ServerID: 2, Status: ping.StatusSuccess},
	}, resp.Results)
	require.Equal(t, 2, pings.inserted())
}

func TestTrigger_ExplicitSubset(t *testing.T) {
	uc, pings := triggerSetup(&gwServers{rows: []*server.Server{
		gwServer(1, server.StateActive),
		gwServer(2, server.StateActive),
	}})

	w := postTrigger(triggerRouter(uc), `{"server_ids":[2]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp triggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, []checker.CycleResult{{ServerID: 2, Status: ping.StatusSuccess}}, resp.Results)
	require.Equal(t, 1, pings.inserted())
}

func TestTrigger_MalformedBody(t *testing.T) {
	uc, pings := triggerSetup(&gwServers{})

	w := postTrigger(triggerRouter(uc), `{"server_ids": [1`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"invalid body"}`, w.Body.String())
	require.Zero(t, pings.inserted())
}

func TestTrigger_RepoErrorIsInternal(t *testing.T) {
	uc, _ := triggerSetup(&gwServers{listErr: errors.New("db down")})

	w := postTrigger(triggerRouter(uc), "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestTrigger_NoServersYieldsEmptyList(t *testing.T) {
	uc, _ := triggerSetup(&gwServers{})

	w := postTrigger(triggerRouter(uc), "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())
}

func TestNew_RouteWiring(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	srvs := &gwServers{}
	pings := &gwPings{}
	statuses := &gwStatuses{}
	uc, _ := triggerSetup(srvs)
	log := zap.NewNop()

	s := New(Config{
		Addr:       ":0",
		AuthSecret: gwSecret,
	}, Deps{
		Log:     log,
		Checker: uc,
		Emitter: stream.NewEmitter(log, statuses, pings),
		Hub:     stream.NewHub(log, srvs, statuses, pings, nil),
		Stats:   &stats.Handler{UC: &stats.Usecase{Servers: srvs, Pings: pings, Statuses: statuses, Log: log}, Log: log},
	})

	do := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		s.http.Handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	w := do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	// Stats and the resumable stream sit behind the bearer token.
	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/v1/stats/overview").Code)
	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/v1/stream/status").Code)
	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/ws/status").Code)

	// No trigger key hash configured means the trigger stays off.
	require.Equal(t, http.StatusServiceUnavailable, do(http.MethodPost, "/api/v1/checks/run").Code)

	tokenReq := httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview", nil)
	tokenReq.Header.Set("Authorization", "Bearer "+signedToken(t, "42"))
	w = httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, tokenReq)
	// The stub repos cannot serve aggregates; reaching the handler at
	// all proves the token cleared the middleware.
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
