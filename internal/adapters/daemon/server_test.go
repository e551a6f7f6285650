package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/daemon"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// fakeService records calls and answers with canned results.
type fakeService struct {
	mu       sync.Mutex
	calls    []string
	checkErr error
	sync     domain.SyncResult
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) set(checkErr error, result domain.SyncResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkErr = checkErr
	f.sync = result
}

func (f *fakeService) CacheOnly(_ context.Context, url string) (domain.Status, error) {
	f.record("cacheOnly " + url)
	f.mu.Lock()
	err := f.checkErr
	f.mu.Unlock()
	if err != nil {
		return domain.Status{}, err
	}
	return domain.Status{State: domain.StateRed, URL: url, Text: domain.TextNotFound}, nil
}

func (f *fakeService) Reconcile(_ context.Context, url string) (domain.Status, error) {
	f.record("reconcile " + url)
	return domain.Status{State: domain.StateGreen, URL: url, Text: domain.TextFound}, nil
}

func (f *fakeService) Rules(_ context.Context, url string) (domain.RulesReport, error) {
	f.record("rules " + url)
	return domain.NewRulesReport(url, domain.DefaultResolution(), []string{url}, nil), nil
}

func (f *fakeService) ClearCache(_ context.Context, url string) (bool, error) {
	f.record("clear " + url)
	return true, nil
}

func (f *fakeService) FullSync(context.Context) domain.SyncResult {
	f.record("fullSync")
	return f.result()
}

func (f *fakeService) DeltaSync(context.Context) domain.SyncResult {
	f.record("deltaSync")
	return f.result()
}

func (f *fakeService) result() domain.SyncResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sync
}

func (f *fakeService) RescheduleSync(context.Context) error {
	f.record("reschedule")
	return nil
}

func (f *fakeService) Status(context.Context) domain.Status {
	f.record("status")
	return domain.UnavailableStatus()
}

func (f *fakeService) Events(context.Context) <-chan domain.Status {
	f.record("events")
	ch := make(chan domain.Status, 1)
	ch <- domain.Status{State: domain.StateOrange, URL: "https://example.com/a", Text: "Found 1 similar URLs."}
	close(ch)
	return ch
}

func (f *fakeService) Navigate(_ context.Context, session, url string) (domain.Status, error) {
	f.record("navigate " + session + " " + url)
	return domain.Status{State: domain.StateGray, URL: url, Text: domain.TextUnclear}, nil
}

func (f *fakeService) ReconcileSession(_ context.Context, session, url string) (domain.Status, error) {
	f.record("reconcileSession " + session + " " + url)
	return domain.Status{State: domain.StateGreen, URL: url, Text: domain.TextFound}, nil
}

func (f *fakeService) CloseSession(session string) {
	f.record("close " + session)
}

func newTestServer(t *testing.T, svc daemon.Service) (*httptest.Server, *daemon.Lifecycle) {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()

	lc := daemon.NewLifecycle(0)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("notionstatus_classifications_total 1\n"))
	})
	srv := httptest.NewServer(daemon.NewServer(svc, lc, log, metrics).Handler())
	t.Cleanup(srv.Close)
	return srv, lc
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	if resp.StatusCode != http.StatusNoContent && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	}
	return resp, payload
}

func TestServer_Routes(t *testing.T) {
	svc := &fakeService{sync: domain.SyncResult{Success: true, Full: true, PagesProcessed: 2, URLsUpdated: 8}}
	srv, lc := newTestServer(t, svc)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		call   string
		check  func(t *testing.T, payload map[string]any)
	}{
		{
			name: "status", method: http.MethodGet, path: "/v1/status", code: http.StatusOK, call: "status",
			check: func(t *testing.T, p map[string]any) { assert.Equal(t, domain.TextUnavailable, p["text"]) },
		},
		{
			name: "check", method: http.MethodGet, path: "/v1/check?url=https://example.com/a",
			code: http.StatusOK, call: "cacheOnly https://example.com/a",
			check: func(t *testing.T, p map[string]any) { assert.Equal(t, "RED", p["state"]) },
		},
		{
			name: "reconcile", method: http.MethodPost, path: "/v1/reconcile", body: `{"url":"https://example.com/a"}`,
			code: http.StatusOK, call: "reconcile https://example.com/a",
			check: func(t *testing.T, p map[string]any) { assert.Equal(t, "GREEN", p["state"]) },
		},
		{
			name: "rules", method: http.MethodGet, path: "/v1/rules?url=https://example.com/a",
			code: http.StatusOK, call: "rules https://example.com/a",
			check: func(t *testing.T, p map[string]any) { assert.Equal(t, "default", p["rule"]) },
		},
		{
			name: "clear cache", method: http.MethodDelete, path: "/v1/cache?url=https://example.com/a",
			code: http.StatusOK, call: "clear https://example.com/a",
			check: func(t *testing.T, p map[string]any) { assert.Equal(t, true, p["removed"]) },
		},
		{
			name: "full sync", method: http.MethodPost, path: "/v1/sync?full=true", code: http.StatusOK, call: "fullSync",
			check: func(t *testing.T, p map[string]any) { assert.InDelta(t, 8, p["urlsUpdated"], 0) },
		},
		{name: "delta sync", method: http.MethodPost, path: "/v1/sync", code: http.StatusOK, call: "deltaSync"},
		{name: "reschedule", method: http.MethodPost, path: "/v1/sync/reschedule", code: http.StatusNoContent, call: "reschedule"},
		{
			name: "navigate", method: http.MethodPost, path: "/v1/sessions/tab-1/navigate",
			body: `{"url":"https://example.com/a"}`, code: http.StatusOK, call: "navigate tab-1 https://example.com/a",
		},
		{
			name: "session reconcile", method: http.MethodPost, path: "/v1/sessions/tab-1/reconcile",
			body: `{"url":"https://example.com/a"}`, code: http.StatusOK, call: "reconcileSession tab-1 https://example.com/a",
		},
		{name: "close session", method: http.MethodDelete, path: "/v1/sessions/tab-1", code: http.StatusNoContent, call: "close tab-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, payload := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.call, svc.Calls()[len(svc.Calls())-1])
			if tt.check != nil {
				tt.check(t, payload)
			}
		})
	}

	assert.Equal(t, int64(len(tests)), lc.Activity().Requests)
}

func TestServer_BadRequests(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	for _, tt := range []struct {
		method, path, body, message string
	}{
		{method: http.MethodGet, path: "/v1/check", message: "url query parameter is required"},
		{method: http.MethodPost, path: "/v1/reconcile", body: "{", message: "invalid request body"},
		{method: http.MethodPost, path: "/v1/reconcile", body: "{}", message: "url is required"},
		{method: http.MethodDelete, path: "/v1/cache", message: "url query parameter is required"},
	} {
		resp, payload := do(t, tt.method, srv.URL+tt.path, tt.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.path)
		assert.Equal(t, tt.message, payload["error"])
	}
	assert.Empty(t, svc.Calls())
}

func TestServer_ErrorMapping(t *testing.T) {
	svc := &fakeService{checkErr: zerr.With(zerr.Wrap(domain.ErrAlreadyInFlight, "cache_only"), "url", "https://example.com/a")}
	srv, _ := newTestServer(t, svc)

	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/check?url=https://example.com/a", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	svc.set(errors.New("store offline"), domain.SyncResult{})
	resp, payload := do(t, http.MethodGet, srv.URL+"/v1/check?url=https://example.com/a", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "store offline", payload["error"])

	svc.set(nil, domain.SyncResult{Error: "notion api error: 502 Bad Gateway"})
	resp, payload = do(t, http.MethodPost, srv.URL+"/v1/sync", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, payload := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Serve(t *testing.T) {
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	server := daemon.NewServer(&fakeService{}, daemon.NewLifecycle(0), log, nil)

	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx, "127.0.0.1:0", func(addr net.Addr) { addrCh <- addr })
	}()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ServeIdleShutdown(t *testing.T) {
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()

	lc := daemon.NewLifecycle(0)
	server := daemon.NewServer(&fakeService{}, lc, log, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(context.Background(), "127.0.0.1:0", func(net.Addr) { lc.Stop() })
	}()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ServeListenError(t *testing.T) {
	log := mocks.NewMockLogger(gomock.NewController(t))
	server := daemon.NewServer(&fakeService{}, daemon.NewLifecycle(0), log, nil)

	err := server.Serve(context.Background(), "256.0.0.1:99999", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrServerFailed.Error())
}

func TestServer_Events(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	event, data, found := strings.Cut(strings.TrimSpace(string(body)), "\n")
	require.True(t, found)
	assert.Equal(t, "event: status", event)

	var status domain.Status
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &status))
	assert.Equal(t, domain.StateOrange, status.State)
	assert.Equal(t, []string{"events"}, svc.Calls())
}
