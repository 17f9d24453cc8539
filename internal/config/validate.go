package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/flemzord/gemgate/internal/core"
)

var (
	logLevels  = []string{"", "debug", "info", "warn", "error"}
	logFormats = []string{"", "text", "json"}
)

// Validate checks the structural validity of a Config.
// It verifies the version field, ensures modules are present, checks that
// all referenced module IDs exist in the registry, and validates the
// logging and telemetry sections. Module-specific settings are checked by
// each module's Validate.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	for _, id := range Resolve(cfg) {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	errs = append(errs, validateLogging(cfg.Logging)...)
	errs = append(errs, validateTracing(cfg.Telemetry.Tracing)...)

	return errors.Join(errs...)
}

func validateLogging(l LoggingConfig) []error {
	var errs []error
	if !slices.Contains(logLevels, l.Level) {
		errs = append(errs, fmt.Errorf("config: logging.level %q is not one of debug, info, warn, error", l.Level))
	}
	if !slices.Contains(logFormats, l.Format) {
		errs = append(errs, fmt.Errorf("config: logging.format %q is not one of text, json", l.Format))
	}
	return errs
}

func validateTracing(t TracingConfig) []error {
	var errs []error
	if t.Enabled && t.Endpoint == "" {
		errs = append(errs, errors.New("config: telemetry.tracing.endpoint is required when tracing is enabled"))
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("config: telemetry.tracing.sample_ratio must be in [0, 1], got %g", t.SampleRatio))
	}
	return errs
}
