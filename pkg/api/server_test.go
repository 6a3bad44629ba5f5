package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServer_StartAndShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:19290", &submitterStub{values: []int64{}}, zap.NewNop().Sugar())
	errCh := server.Start()
	time.Sleep(50 * time.Millisecond)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://127.0.0.1:19290/window", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after shutdown")
	}
}

func TestServer_StartFailsOnBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := NewServer(ln.Addr().String(), &submitterStub{}, zap.NewNop().Sugar())

	select {
	case err := <-server.Start():
		require.ErrorContains(t, err, "api server")
	case <-time.After(2 * time.Second):
		t.Fatal("expected listen error")
	}
}
