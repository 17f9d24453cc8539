// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for gemgate.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// DataDir holds module state such as the usage ledger. Defaults to
	// $XDG_DATA_HOME/gemgate.
	DataDir string `yaml:"data_dir,omitempty"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "provider.google").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
}

// TelemetryConfig holds tracing settings. Metrics are always collected and
// exposed by the gateway.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig configures the OTLP/HTTP span exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Endpoint is host:port of the OTLP/HTTP collector.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName defaults to "gemgate".
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces kept, in [0, 1]. Zero keeps all.
	SampleRatio float64 `yaml:"sample_ratio"`
}
