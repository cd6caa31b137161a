// sgr-proxy is the local HTTP proxy the SGR desktop client talks to. It
// normalizes the remote backend's responses, keeps its JSESSIONID session
// alive, and serves the order analytics the client's dashboard renders.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/monitoring"
	"github.com/sgr-desktop/sgr-proxy/internal/proxy"
	"github.com/sgr-desktop/sgr-proxy/internal/server"
	"github.com/sgr-desktop/sgr-proxy/internal/session"
	"github.com/sgr-desktop/sgr-proxy/internal/upstream"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	log.Info().
		Str("listen", cfg.Server.Addr()).
		Str("upstream", cfg.Upstream.BaseURL).
		Dur("timeout", cfg.Upstream.Timeout).
		Msg("starting sgr-proxy")
	if cfg.Upstream.IsLoopback() {
		log.Warn().Msg("upstream points at the local machine; check API_EXTERNA_URL in config.env")
	}

	client := upstream.NewClient(&cfg.Upstream, session.NewStore(), cfg.Server.LocalOrigin())

	// Connectivity check runs before serving so the operator sees at startup
	// whether the backend is reachable; an unreachable backend is not fatal.
	probe := upstream.Probe(context.Background(), &cfg.Upstream)
	if probe.Reachable {
		log.Info().Str("layer", probe.Layer).Dur("latency", probe.Latency).
			Msg("upstream reachable")
	} else {
		log.Warn().Str("detail", probe.Detail).Msg("upstream unreachable, proxy will keep retrying per request")
	}

	obs := setupObservers(cfg.Monitoring)
	defer closeObservers(obs)
	client.OnFailure(obs.Metrics.RecordUpstreamFailure)

	srv := server.New(cfg, proxy.NewHandler(cfg, client), obs)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			log.Error().Err(err).Msg("server stopped")
			done <- syscall.SIGTERM
		}
	}()

	<-done
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// setupLogging picks console output for interactive runs and JSON otherwise.
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if os.Getenv("SGR_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// setupObservers opens the telemetry sinks; each one degrades to nil on
// failure so monitoring never blocks startup.
func setupObservers(cfg config.MonitoringConfig) *server.Observers {
	obs := &server.Observers{Metrics: monitoring.NewMetrics()}
	if !cfg.Enabled {
		return obs
	}

	tracker, err := monitoring.NewTracker(true, cfg.TelemetryPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.TelemetryPath).Msg("telemetry log disabled")
	} else {
		obs.Tracker = tracker
	}

	events, err := monitoring.OpenEventStore(cfg.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.SQLitePath).Msg("event store disabled")
	} else {
		obs.Events = events
	}
	return obs
}

func closeObservers(obs *server.Observers) {
	if obs.Tracker != nil {
		_ = obs.Tracker.Close()
	}
	if obs.Events != nil {
		_ = obs.Events.Close()
	}
}
