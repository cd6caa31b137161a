// Package config loads proxy configuration from config.env, the process
// environment, and an optional YAML file.
//
// DESIGN: The desktop installer ships a config.env next to the binary; users
// edit it by hand, which is why the base URL is scrubbed of inline comments
// before parsing. Environment variables win over config.env, the YAML file
// only adds monitoring knobs.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved proxy configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Monitoring MonitoringConfig
}

// ServerConfig configures the local HTTP listener.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UpstreamConfig describes the remote backend being proxied.
type UpstreamConfig struct {
	// BaseURL always ends with "/" so endpoint paths can be appended directly.
	BaseURL string
	Timeout time.Duration

	// Derived from BaseURL, used in diagnostics.
	Protocol string
	Host     string
	Port     int
}

// MonitoringConfig configures telemetry sinks.
type MonitoringConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TelemetryPath string `yaml:"telemetry_path"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// Addr returns the listen address for the local server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LocalOrigin is the Origin header value sent upstream; the upstream CORS
// filter was configured against the desktop proxy's address.
func (s ServerConfig) LocalOrigin() string {
	return fmt.Sprintf("http://localhost:%d", s.Port)
}

// IsLoopback reports whether the upstream points at the local machine, which
// usually means a developer forgot to switch config.env to the cloud URL.
func (u UpstreamConfig) IsLoopback() bool {
	return u.Host == "localhost" || u.Host == "127.0.0.1"
}

// Load resolves the configuration. A missing config.env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load("config.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultListenPort,
			ReadTimeout:  DefaultServerReadTimeout,
			WriteTimeout: DefaultServerWriteTimeout,
		},
		Upstream: UpstreamConfig{
			BaseURL: DefaultUpstreamBaseURL,
			Timeout: DefaultUpstreamTimeout,
		},
		Monitoring: MonitoringConfig{
			Enabled:       true,
			TelemetryPath: "logs/requests.jsonl",
			SQLitePath:    "logs/requests.db",
		},
	}

	if v := os.Getenv("API_EXTERNA_URL"); strings.TrimSpace(v) != "" {
		cfg.Upstream.BaseURL = v
	}
	cfg.Upstream.BaseURL = NormalizeBaseURL(cfg.Upstream.BaseURL)

	if v := os.Getenv("API_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid API_TIMEOUT %q: must be a positive integer of seconds", v)
		}
		cfg.Upstream.Timeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Server.Port = port
	}

	if path := os.Getenv("SGR_CONFIG"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	applyDerivedUpstream(&cfg.Upstream)
	return cfg, nil
}

// NormalizeBaseURL scrubs an upstream base URL the way users actually write
// it in config.env: surrounding whitespace, inline " #" or " <--" comments,
// and a guaranteed trailing slash.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if i := strings.Index(u, " <--"); i >= 0 {
		u = u[:i]
	}
	if i := strings.Index(u, " #"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSpace(u)
	if u == "" {
		return u
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func applyDerivedUpstream(up *UpstreamConfig) {
	up.Protocol = "http"
	parsed, err := url.Parse(strings.TrimSuffix(up.BaseURL, "/"))
	if err != nil || parsed.Hostname() == "" {
		// Leave diagnostics fields best-effort; the forwarder surfaces the
		// parse failure itself as a url_parse_error envelope.
		return
	}
	if parsed.Scheme != "" {
		up.Protocol = parsed.Scheme
	}
	up.Host = parsed.Hostname()
	if p := parsed.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			up.Port = n
		}
	}
	if up.Port == 0 {
		if up.Protocol == "https" {
			up.Port = 443
		} else {
			up.Port = 80
		}
	}
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var file struct {
		Monitoring MonitoringConfig `yaml:"monitoring"`
	}
	file.Monitoring = cfg.Monitoring
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.Monitoring = file.Monitoring
	return nil
}
