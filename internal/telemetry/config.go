package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fyrsmithlabs/wizz/internal/config"
)

const (
	protocolGRPC = "grpc"
	protocolHTTP = "http/protobuf"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	Endpoint       string
	Protocol       string
	ServiceName    string
	ServiceVersion string
	// Insecure sends plaintext OTLP and is only accepted for loopback endpoints.
	Insecure bool
	// SampleRate is the parent-based trace ratio in [0, 1].
	SampleRate float64
	// MetricsInterval is the OTLP push period. Zero disables metric export.
	MetricsInterval time.Duration
	ShutdownTimeout time.Duration
}

// NewDefaultConfig returns telemetry defaults. Telemetry is off until
// observability.enable_telemetry is set.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:        "localhost:4317",
		Protocol:        protocolGRPC,
		ServiceName:     "wizz",
		ServiceVersion:  "0.1.0",
		Insecure:        true,
		SampleRate:      1.0,
		MetricsInterval: 15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// FromAppConfig derives the telemetry config from the observability section.
func FromAppConfig(oc config.ObservabilityConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = oc.EnableTelemetry
	cfg.Insecure = oc.Insecure
	for dst, src := range map[*string]string{
		&cfg.Endpoint:       oc.Endpoint,
		&cfg.Protocol:       oc.Protocol,
		&cfg.ServiceName:    oc.ServiceName,
		&cfg.ServiceVersion: version,
	} {
		if src != "" {
			*dst = src
		}
	}
	return cfg
}

// Validate checks an enabled config. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint is required when telemetry is enabled")
	case c.ServiceName == "" || c.ServiceVersion == "":
		return errors.New("service name and version are required when telemetry is enabled")
	case c.Protocol != protocolGRPC && c.Protocol != protocolHTTP:
		return fmt.Errorf("protocol must be %q or %q, got %q", protocolGRPC, protocolHTTP, c.Protocol)
	case c.Insecure && !isLoopback(c.Endpoint):
		return fmt.Errorf("insecure export to %s refused: only localhost or loopback endpoints may use plaintext", c.Endpoint)
	case c.SampleRate < 0 || c.SampleRate > 1:
		return fmt.Errorf("sample rate must be between 0 and 1, got %g", c.SampleRate)
	case c.MetricsInterval < 0 || c.ShutdownTimeout <= 0:
		return errors.New("metrics interval must be >= 0 and shutdown timeout > 0")
	}
	return nil
}

func isLoopback(endpoint string) bool {
	host := hostPort(endpoint)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// hostPort drops an http:// or https:// scheme; the OTLP exporters take host:port.
func hostPort(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
