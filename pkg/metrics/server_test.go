package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	server := NewServer(":0", reg, nil) // :0 lets OS pick available port

	require.NotNil(t, server)
	require.NotNil(t, server.httpServer)
	require.Equal(t, ":0", server.httpServer.Addr)
}

func httpGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// startServer starts s and registers a graceful shutdown with the test.
func startServer(t *testing.T, s *Server) {
	t.Helper()
	errCh := s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		<-errCh
	})

	// Give server time to start
	time.Sleep(50 * time.Millisecond)
}

func TestServer_StartAndShutdown(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	server := NewServer("127.0.0.1:19190", reg, nil)
	errCh := server.Start()
	time.Sleep(50 * time.Millisecond)

	resp, err := httpGet(t.Context(), "http://127.0.0.1:19190/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	// Channel is closed without an error on normal shutdown.
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	m.UpdateWindowMetrics(3, 4.5)
	m.IncError(ErrTypeInvalidCategory)
	m.RecordFetch("p", StatusSuccess, 3, 0.02)

	server := NewServer("127.0.0.1:19191", reg, nil)
	startServer(t, server)

	resp, err := httpGet(t.Context(), "http://127.0.0.1:19191/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	bodyStr := string(body)
	require.Contains(t, bodyStr, "averager_window_size")
	require.Contains(t, bodyStr, "averager_window_average")
	require.Contains(t, bodyStr, "averager_errors_total")
	require.Contains(t, bodyStr, "averager_fetch_calls_total")
}

func TestServer_HealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		addr       string
		health     HealthFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no health func",
			addr:       "127.0.0.1:19192",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "healthy",
			addr:       "127.0.0.1:19193",
			health:     func() error { return nil },
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "unhealthy",
			addr:       "127.0.0.1:19194",
			health:     func() error { return errors.New("publisher failed") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "publisher failed\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(tt.addr, prometheus.NewRegistry(), tt.health)
			startServer(t, server)

			resp, err := httpGet(t.Context(), "http://"+tt.addr+"/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Equal(t, tt.wantBody, string(body))
		})
	}
}
