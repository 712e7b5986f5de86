// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"jobboard-edge/internal/model"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/jobboard-edge/config.toml",
	"configs/config.toml",
}

// reservedRoutes are route prefixes owned by the service itself.
var reservedRoutes = []string{"/api", "/state", "/healthz", "/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config      string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host        string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port        int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	BackendURL  string `kong:"name='backend-url',help='Backend API base URL (overrides config).',env='NEXT_PUBLIC_API_URL'"`
	FrontendURL string `kong:"name='frontend-url',help='Page renderer base URL (overrides config).',env='FRONTEND_URL'"`
	LogLevel    string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Backend   BackendConfig   `toml:"backend"`
	Frontend  FrontendConfig  `toml:"frontend"`
	Documents DocumentsConfig `toml:"documents"`
	Guard     GuardConfig     `toml:"guard"`
	State     StateConfig     `toml:"state"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	filePath string // resolved config file path, empty when running without a file
	cli      *CLI
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000)
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// BackendConfig holds the backend API connection settings. An empty BaseURL
// is allowed at load time; the JSON proxy reports it per request.
type BackendConfig struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// FrontendConfig points at the page renderer that receives guarded page requests.
type FrontendConfig struct {
	BaseURL string `toml:"base_url"`
}

// DocumentsConfig controls the document and PDF proxies.
type DocumentsConfig struct {
	RevalidateSeconds int      `toml:"revalidate_seconds"`
	AllowedHosts      []string `toml:"allowed_hosts"` // empty allows any host
}

// GuardConfig overrides the redirect target of each role root path.
type GuardConfig struct {
	Redirects map[string]string `toml:"redirects"`
	Watch     bool              `toml:"watch"` // reload redirects when the config file changes
}

// StateConfig holds settings for the in-process state stores.
type StateConfig struct {
	ReferenceSeed string `toml:"reference_seed"` // YAML file preloaded into the reference store
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Endpoint    string `toml:"endpoint"` // empty disables tracing
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"service_name"`
	Environment string `toml:"environment"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/jobboard-edge/config.toml then configs/config.toml. Running without
// any file is allowed: defaults plus CLI and environment values apply.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	return load(path, cli)
}

// Reload re-reads the file the config was loaded from, reapplying the same
// CLI overrides. The receiver is left untouched.
func (c *Config) Reload() (*Config, error) {
	if c.filePath == "" {
		return nil, errors.New("config: no config file to reload")
	}
	cli := c.cli
	if cli == nil {
		cli = &CLI{}
	}
	return load(c.filePath, cli)
}

// FilePath returns the resolved config file path, or empty when none was used.
func (c *Config) FilePath() string {
	return c.filePath
}

func load(path string, cli *CLI) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.cli = cli
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.BackendURL != "" {
		c.Backend.BaseURL = cli.BackendURL
	}
	if cli.FrontendURL != "" {
		c.Frontend.BaseURL = cli.FrontendURL
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	if err := validateHTTPURL("backend.base_url", c.Backend.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("frontend.base_url", c.Frontend.BaseURL); err != nil {
		return err
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0-65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must be non-negative; got %d", c.Backend.TimeoutSeconds)
	}
	if c.Backend.IdleConnections < 0 {
		return fmt.Errorf("backend.idle_connections must be non-negative; got %d", c.Backend.IdleConnections)
	}
	if c.Documents.RevalidateSeconds < 0 {
		return fmt.Errorf("documents.revalidate_seconds must be non-negative; got %d", c.Documents.RevalidateSeconds)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	for _, h := range c.Documents.AllowedHosts {
		if h == "" || strings.ContainsAny(h, "/:") {
			return fmt.Errorf("documents.allowed_hosts entries must be bare host names; got %q", h)
		}
	}

	// Guard redirects: closed role set, absolute in-site targets.
	for role, target := range c.Guard.Redirects {
		if !model.Role(role).Valid() {
			return fmt.Errorf("guard.redirects: unknown role %q (want one of %v)", role, model.Roles)
		}
		if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
			return fmt.Errorf("guard.redirects.%s must be a site-relative path starting with '/'; got %q", role, target)
		}
	}
	if c.Guard.Watch && c.filePath == "" {
		return fmt.Errorf("guard.watch requires a config file")
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// validateHTTPURL accepts an empty value or an absolute http(s) URL.
func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https; got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host; got %q", field, raw)
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 120
	}
	if c.Backend.IdleConnections == 0 {
		c.Backend.IdleConnections = 100
	}
	if c.Documents.RevalidateSeconds == 0 {
		c.Documents.RevalidateSeconds = 3600
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "jobboard-edge"
	}
}

// GuardRedirects returns the configured redirect overrides keyed by role.
func (c *Config) GuardRedirects() map[model.Role]string {
	out := make(map[model.Role]string, len(c.Guard.Redirects))
	for role, target := range c.Guard.Redirects {
		out[model.Role(role)] = target
	}
	return out
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
