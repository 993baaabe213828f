// Package config loads the workflow service's startup configuration: MAC
// jurisdiction default, orchestrator error policy/timeout/retry defaults,
// per-agent backend assignments, and the AI model/cache connection
// settings, via a load→expand→merge→validate pipeline (loader.go).
package config

// BackendConfig names the endpoint/deployment assigned to a given agent,
// handed to that agent as agent.Services.Backend (mirrors services.Backend
// as plain, YAML-loadable data). It does not change which AI model client
// the agent gets.
type BackendConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty"`
	Deployment string `yaml:"deployment,omitempty"`
}

// AIModelConfig is the language model backend shared by all agents.
type AIModelConfig struct {
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// Config is the umbrella object returned by Initialize.
type Config struct {
	configDir string

	Defaults *Defaults
	AIModel  *AIModelConfig
	CacheURL string
	Backends map[string]BackendConfig
}

// ConfigDir returns the directory Initialize loaded service.yaml from.
func (c *Config) ConfigDir() string { return c.configDir }

// Backend returns the backend assignment for agentName, or ok=false if
// none was configured.
func (c *Config) Backend(agentName string) (BackendConfig, bool) {
	b, ok := c.Backends[agentName]
	return b, ok
}
