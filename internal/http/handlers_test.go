package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"healthbot/internal/core"
	httpserver "healthbot/internal/http"
	"healthbot/internal/outbreak"
	"healthbot/pkg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	reply string
	err   error
	got   []string
}

func (f *fakeAgent) Handle(_ context.Context, text string) (string, error) {
	f.got = append(f.got, text)
	return f.reply, f.err
}

type fakeSyncer struct {
	res outbreak.Result
	err error
}

func (f *fakeSyncer) Sync(context.Context) (outbreak.Result, error) {
	return f.res, f.err
}

type fakeStore struct {
	pingErr error
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Counts(context.Context) (pkg.Counts, error) {
	return pkg.Counts{VaccinationSchedules: 5, SymptomGuides: 5, DiseaseOutbreaks: 1}, nil
}

func newTestServer(agent *fakeAgent, syncer *fakeSyncer, store *fakeStore) *httpserver.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "healthbot_test_total", Help: "test"}))
	return httpserver.NewServer(agent, syncer, store, nil, reg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostMessage(t *testing.T) {
	agent := &fakeAgent{reply: "Drink safe water.\n\n" + core.Disclaimer}
	srv := newTestServer(agent, &fakeSyncer{}, &fakeStore{})

	rec := do(t, srv, http.MethodPost, "/api/messages", `{"text":"How do I avoid cholera?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp pkg.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Reply, core.Disclaimer)
	require.Equal(t, []string{"How do I avoid cholera?"}, agent.got)
}

func TestPostMessageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `text=hello`},
		{name: "empty text", body: `{"text":""}`},
		{name: "blank text", body: `{"text":"   "}`},
		{name: "missing text", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &fakeAgent{}
			srv := newTestServer(agent, &fakeSyncer{}, &fakeStore{})
			rec := do(t, srv, http.MethodPost, "/api/messages", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Empty(t, agent.got)
		})
	}
}

func TestPostMessageFailureIsBadGateway(t *testing.T) {
	agent := &fakeAgent{err: errors.New("decide call: endpoint down")}
	srv := newTestServer(agent, &fakeSyncer{}, &fakeStore{})

	rec := do(t, srv, http.MethodPost, "/api/messages", `{"text":"hello"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotContains(t, rec.Body.String(), "endpoint down")
}

func TestSyncEndpoint(t *testing.T) {
	syncer := &fakeSyncer{res: outbreak.Result{
		Fetched:  2,
		Inserted: 1,
		New:      []pkg.DiseaseOutbreak{{ID: "o1", Title: "Cholera - Sudan"}},
	}}
	srv := newTestServer(&fakeAgent{}, syncer, &fakeStore{})

	rec := do(t, srv, http.MethodPost, "/api/outbreaks/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"inserted":1`)
	require.Contains(t, rec.Body.String(), "Cholera - Sudan")

	syncer.res = outbreak.Result{Err: outbreak.ErrFeed}
	rec = do(t, srv, http.MethodPost, "/api/outbreaks/sync", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), `"new":[]`)

	syncer.err = errors.New("store down")
	rec = do(t, srv, http.MethodPost, "/api/outbreaks/sync", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(&fakeAgent{}, &fakeSyncer{}, store)

	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"vaccination_schedules":5`)

	store.pingErr = errors.New("down")
	rec = do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndRouting(t *testing.T) {
	srv := newTestServer(&fakeAgent{}, &fakeSyncer{}, &fakeStore{})

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthbot_test_total")

	rec = do(t, srv, http.MethodGet, "/api/messages", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, srv, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
