// Package monitoring records what flows through the proxy: JSONL telemetry
// for per-request events, a SQLite archive for offline inspection, and
// Prometheus metrics for live scraping.
//
// DESIGN: Sinks are independent and all best-effort. A full disk or a locked
// database must never fail a proxied request, so every write error is logged
// and swallowed.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RequestEvent is one proxied request as recorded in telemetry.
type RequestEvent struct {
	Timestamp        time.Time `json:"timestamp"`
	RequestID        string    `json:"request_id"`
	Method           string    `json:"method"`
	Path             string    `json:"path"`
	UpstreamEndpoint string    `json:"upstream_endpoint,omitempty"`
	Status           int       `json:"status"`
	DurationMS       int64     `json:"duration_ms"`
}

// Tracker appends request events to a JSONL file, one object per line,
// flushed per event so the log tails in real time.
type Tracker struct {
	mu      sync.Mutex
	enabled bool
	path    string
	count   int
}

// NewTracker creates the telemetry tracker. A disabled tracker accepts
// events and drops them.
func NewTracker(enabled bool, path string) (*Tracker, error) {
	t := &Tracker{enabled: enabled, path: path}
	if !enabled || path == "" {
		t.enabled = false
		return t, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if f, err := os.Create(path); err == nil {
			_ = f.Close()
		}
	}
	return t, nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(data)
	return err
}

// RecordRequest appends one request event.
func (t *Tracker) RecordRequest(event *RequestEvent) {
	if !t.enabled || event == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := appendJSONL(t.path, event); err != nil {
		log.Error().Err(err).Str("path", t.path).Msg("telemetry: failed to write request event")
		return
	}
	t.count++
}

// Close logs the session total.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enabled && t.count > 0 {
		log.Info().Str("path", t.path).Int("events", t.count).Msg("telemetry: session complete")
	}
	return nil
}
