// Package otel traces identity decisions with OpenTelemetry. Tracing is off
// unless enabled in the config file or with --otel.
package otel

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	ProtocolHTTP = "otlphttp"
	ProtocolGRPC = "otlpgrpc"
)

const defaultServiceName = "propguard"

// Config is the otel section of propguard.yaml.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint is host:port or a full URL; empty falls back to
	// OTEL_EXPORTER_OTLP_ENDPOINT, then the protocol's local collector.
	Endpoint    string  `yaml:"endpoint"`
	Protocol    string  `yaml:"protocol"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DefaultConfig has tracing off and samples every decision once enabled.
func DefaultConfig() Config {
	return Config{
		Protocol:    ProtocolHTTP,
		ServiceName: defaultServiceName,
		SampleRatio: 1.0,
	}
}

// Validate only checks an enabled config.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
	default:
		errs = append(errs, errors.New("otel: protocol must be 'otlphttp' or 'otlpgrpc'"))
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		errs = append(errs, errors.New("otel: sample-ratio must be between 0 and 1"))
	}
	if c.Endpoint != "" && strings.Contains(c.Endpoint, "://") &&
		!strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		errs = append(errs, fmt.Errorf("otel: endpoint %q must be host:port or an http(s) URL", c.Endpoint))
	}
	return errors.Join(errs...)
}

// resolvedEndpoint applies the env and protocol fallbacks.
func (c Config) resolvedEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if env := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); env != "" {
		return env
	}
	if c.Protocol == ProtocolGRPC {
		return "localhost:4317"
	}
	return "localhost:4318"
}

func (c Config) serviceName() string {
	if c.ServiceName == "" {
		return defaultServiceName
	}
	return c.ServiceName
}

func isURL(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
