package config

// Defaults contains system-wide default configurations applied when a
// service.yaml omits them.
type Defaults struct {
	// MAC jurisdiction the LCD agent uses when a case doesn't carry one;
	// an injected default rather than a value hardcoded into the agent.
	MACJurisdiction string `yaml:"mac_jurisdiction,omitempty"`

	// ErrorPolicy default for the orchestrator (fail-fast / skip-dependents /
	// continue).
	ErrorPolicy string `yaml:"error_policy,omitempty"`

	// WorkflowTimeoutSeconds bounds the whole Run call.
	WorkflowTimeoutSeconds *int `yaml:"workflow_timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// RetryPolicy default applied to every agent.
	RetryPolicy *RetryPolicyDefaults `yaml:"retry_policy,omitempty"`

	// AlertMasking holds case-note masking settings. It is loaded and
	// validated here, but pkg/logging does not read it: the logger always
	// scrubs PII with its built-in patterns.
	AlertMasking *AlertMaskingDefaults `yaml:"alert_masking,omitempty"`
}

// RetryPolicyDefaults mirrors executor.RetryPolicy's tunables as plain data
// so they can be loaded from YAML/env without pkg/config depending on
// pkg/workflow/executor.
type RetryPolicyDefaults struct {
	MaxRetries int   `yaml:"max_retries,omitempty" validate:"omitempty,min=0"`
	BackoffMs  int64 `yaml:"backoff_ms,omitempty" validate:"omitempty,min=0"`
}

// AlertMaskingDefaults holds case-note masking settings. No component
// applies them; see Defaults.AlertMasking.
type AlertMaskingDefaults struct {
	Enabled      bool   `yaml:"enabled"`
	PatternGroup string `yaml:"pattern_group"`
}
