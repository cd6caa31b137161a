package upstream

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
)

// ProbeResult reports what the startup reachability check found.
type ProbeResult struct {
	Reachable bool
	// Layer names how far the probe got: "http", "tcp" or "none".
	Layer   string
	Latency time.Duration
	Detail  string
}

// Probe checks whether the upstream answers before the proxy starts serving.
// It first tries a plain HTTP GET against the base URL; if that fails it
// falls back to a raw TCP dial so connectivity and application faults can be
// told apart in the startup banner. Probe failure never blocks startup.
func Probe(ctx context.Context, cfg *config.UpstreamConfig) ProbeResult {
	start := time.Now()

	httpCtx, cancel := context.WithTimeout(ctx, config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(httpCtx, http.MethodGet, cfg.BaseURL, nil)
	if err == nil {
		client := &http.Client{Timeout: config.ProbeTimeout}
		resp, doErr := client.Do(req)
		if doErr == nil {
			resp.Body.Close()
			res := ProbeResult{
				Reachable: true,
				Layer:     "http",
				Latency:   time.Since(start),
				Detail:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			}
			log.Info().Str("url", cfg.BaseURL).Dur("latency", res.Latency).
				Str("detail", res.Detail).Msg("upstream reachable")
			return res
		}
		err = doErr
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	conn, dialErr := net.DialTimeout("tcp", addr, config.ProbeDialTimeout)
	if dialErr == nil {
		conn.Close()
		res := ProbeResult{
			Reachable: true,
			Layer:     "tcp",
			Latency:   time.Since(start),
			Detail:    fmt.Sprintf("TCP ok, HTTP failed: %v", err),
		}
		log.Warn().Str("addr", addr).Err(err).
			Msg("upstream port open but HTTP probe failed")
		return res
	}

	res := ProbeResult{
		Layer:   "none",
		Latency: time.Since(start),
		Detail:  fmt.Sprintf("HTTP: %v; TCP: %v", err, dialErr),
	}
	log.Warn().Str("url", cfg.BaseURL).Str("addr", addr).
		Str("detail", res.Detail).Msg("upstream unreachable at startup")
	return res
}
