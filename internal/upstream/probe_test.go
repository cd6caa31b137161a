package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
)

func TestProbeHTTPReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	res := Probe(context.Background(), &config.UpstreamConfig{
		BaseURL: srv.URL + "/api/",
		Timeout: time.Second,
		Host:    u.Hostname(),
		Port:    port,
	})
	assert.True(t, res.Reachable)
	assert.Equal(t, "http", res.Layer)
}

func TestProbeUnreachable(t *testing.T) {
	res := Probe(context.Background(), &config.UpstreamConfig{
		BaseURL: "http://127.0.0.1:1/api/",
		Timeout: time.Second,
		Host:    "127.0.0.1",
		Port:    1,
	})
	assert.False(t, res.Reachable)
	assert.Equal(t, "none", res.Layer)
	assert.NotEmpty(t, res.Detail)
}
