package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vthell-api/internal/archive"
	"vthell-api/internal/jobs"
	"vthell-api/internal/jobs/mocks"
	"vthell-api/internal/storage"
	"vthell-api/internal/streamers"
	"vthell-api/internal/web/handlers"
	"vthell-api/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestServer(t *testing.T, port string) (*Server, *mocks.MockResolver) {
	t.Helper()
	resolver := mocks.NewMockResolver(gomock.NewController(t))
	service := jobs.NewService(jobs.NewStore(storage.NewMemory()), resolver, time.Second)
	h := handlers.NewHandlers(service, archive.NewIndexStore(storage.NewMemory()), nil, streamers.New(nil), "secret")
	return NewServer(h, port), resolver
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t, "35608")
	require.NotNil(t, server)
	require.Equal(t, ":35608", server.server.Addr)
}

func TestServer_Routes(t *testing.T) {
	server, _ := newTestServer(t, "0")

	tests := []struct {
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/ping", http.StatusOK, "OK"},
		{http.MethodHead, "/ping", http.StatusOK, ""},
		{http.MethodGet, "/api/echo", http.StatusOK, "OK"},
		{http.MethodGet, "/api/jobs", http.StatusOK, "{\"data\":[]}\n"},
		{http.MethodGet, "/api/stats/a,b", http.StatusOK, "{\"data\":{\"a\":{},\"b\":{}}}\n"},
		{http.MethodGet, "/api/records", http.StatusNotFound, ""},
		{http.MethodPost, "/api/records", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/api/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantBody != "" {
				require.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_Preflight(t *testing.T) {
	server, _ := newTestServer(t, "0")

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "https://vthell.example")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "DELETE, GET, POST, PUT", w.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestServer_CreateThenStatus(t *testing.T) {
	server, resolver := newTestServer(t, "0")

	resolver.EXPECT().Resolve(gomock.Any(), "abc123").Return(&models.ResolvedStream{
		ID:        "abc123",
		Filename:  "[2023.05.01.abc123] Hello／World",
		StartTime: 1682935140,
		Streamer:  "UCaqua",
		StreamURL: "https://www.youtube.com/watch?v=abc123",
		Type:      models.PlatformYouTube,
	}, nil)

	form := url.Values{"url": {"abc123"}, "passkey": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/abc123", nil))
	require.JSONEq(t, `{"data": {"abc123": {"recording": false, "recorded": false, "paused": false}}}`, w.Body.String())
}

func TestServer_StartAndShutdown(t *testing.T) {
	server, _ := newTestServer(t, "0")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	err := server.Shutdown(ctx)
	require.NoError(t, err)

	select {
	case err := <-errChan:
		require.Equal(t, http.ErrServerClosed, err)
	case <-time.After(time.Second):
		t.Fatal("Server did not shutdown within timeout")
	}
}
