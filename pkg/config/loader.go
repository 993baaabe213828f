package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ServiceYAMLConfig represents the complete service.yaml file structure.
type ServiceYAMLConfig struct {
	Defaults *Defaults                `yaml:"defaults"`
	AIModel  *AIModelConfig           `yaml:"ai_model"`
	CacheURL string                   `yaml:"cache_url"`
	Backends map[string]BackendConfig `yaml:"backends"`
}

func builtinDefaults() *Defaults {
	timeout := 300
	return &Defaults{
		MACJurisdiction:        "J-UNSPECIFIED",
		ErrorPolicy:            "continue",
		WorkflowTimeoutSeconds: &timeout,
		RetryPolicy:            &RetryPolicyDefaults{MaxRetries: 3, BackoffMs: 1000},
	}
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Read service.yaml from configDir, if present
//  2. Expand environment variables
//  3. Parse YAML into ServiceYAMLConfig
//  4. Merge over built-in defaults
//  5. Validate
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.InfoContext(ctx, "initializing configuration")

	path := filepath.Join(configDir, "service.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WarnContext(ctx, "no service.yaml found, using built-in defaults", "path", path)
			raw = []byte{}
		} else {
			return nil, NewLoadError(path, err)
		}
	}

	expanded := ExpandEnv(raw)

	var parsed ServiceYAMLConfig
	if len(expanded) > 0 {
		if err := yaml.Unmarshal(expanded, &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	}

	defaults := builtinDefaults()
	if parsed.Defaults != nil {
		if err := mergo.Merge(defaults, parsed.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge defaults: %w", err)
		}
	}

	cfg := &Config{
		configDir: configDir,
		Defaults:  defaults,
		AIModel:   parsed.AIModel,
		CacheURL:  parsed.CacheURL,
		Backends:  parsed.Backends,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "configuration initialized",
		"mac_jurisdiction", cfg.Defaults.MACJurisdiction,
		"error_policy", cfg.Defaults.ErrorPolicy,
		"backends", len(cfg.Backends),
	)
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Defaults.ErrorPolicy {
	case "fail-fast", "skip-dependents", "continue":
	default:
		return NewValidationError("defaults", "errorPolicy", "error_policy",
			fmt.Errorf("%w: %q", ErrInvalidValue, cfg.Defaults.ErrorPolicy))
	}
	if cfg.Defaults.WorkflowTimeoutSeconds != nil && *cfg.Defaults.WorkflowTimeoutSeconds <= 0 {
		return NewValidationError("defaults", "workflowTimeoutSeconds", "workflow_timeout_seconds",
			fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}
