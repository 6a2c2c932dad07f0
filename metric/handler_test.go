package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Defaults(t *testing.T) {
	server := NewServer(0, "", NewRegistry())

	assert.Equal(t, "http://localhost:24220/metrics", server.Address())
}

func TestServer_MetricsEndpoint(t *testing.T) {
	registry := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "handler_test_counter",
		Help: "A counter for handler tests",
	})
	require.NoError(t, registry.RegisterCounter("agent", "handler_test_counter", counter))
	counter.Inc()

	server := NewServer(24220, "/metrics", registry)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "handler_test_counter")
}

func TestServer_HealthEndpointDefault(t *testing.T) {
	server := NewServer(24220, "/metrics", NewRegistry())

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestServer_HealthEndpointCustomHandler(t *testing.T) {
	server := NewServer(24220, "/metrics", NewRegistry())
	server.SetHealthHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"healthy":false}`))
	}))

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"healthy":false`)
}

func TestServer_RootPageLinksEndpoints(t *testing.T) {
	server := NewServer(24220, "/metrics", NewRegistry())

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `href="/metrics"`)
	assert.Contains(t, string(body), `href="/health"`)
}

func TestServer_StopWithoutStart(t *testing.T) {
	server := NewServer(24220, "/metrics", NewRegistry())

	assert.NoError(t, server.Stop())
}
