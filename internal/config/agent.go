package config

import (
	"fmt"
	"maps"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName       = "TRIAGE_AGENT_NAME"
	EnvAgentProvider   = "TRIAGE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL    = "TRIAGE_AGENT_BASE_URL"
	EnvAgentModel      = "TRIAGE_AGENT_MODEL_NAME"
	EnvAgentToken      = "TRIAGE_AGENT_TOKEN"
	EnvAgentDeployment = "TRIAGE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion = "TRIAGE_AGENT_API_VERSION"
	EnvAgentAuthType   = "TRIAGE_AGENT_AUTH_TYPE"
)

// AgentConfig selects the language model behind the classification oracle.
// Options carries provider-specific settings such as token or deployment.
type AgentConfig struct {
	Name     string         `toml:"name"`
	Provider string         `toml:"provider"`
	BaseURL  string         `toml:"base_url"`
	Model    string         `toml:"model"`
	Options  map[string]any `toml:"options"`
}

// Finalize fills unset fields from the go-agents defaults, applies
// environment variable overrides, and validates.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Options are merged by key.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if len(overlay.Options) > 0 {
		if c.Options == nil {
			c.Options = make(map[string]any, len(overlay.Options))
		}
		maps.Copy(c.Options, overlay.Options)
	}
}

// Agent builds the go-agents configuration for this section on top of
// gaconfig.DefaultAgentConfig.
func (c *AgentConfig) Agent() gaconfig.AgentConfig {
	cfg := gaconfig.DefaultAgentConfig()

	overlay := gaconfig.AgentConfig{
		Name: c.Name,
		Provider: &gaconfig.ProviderConfig{
			Name:    c.Provider,
			BaseURL: c.BaseURL,
			Options: maps.Clone(c.Options),
		},
		Model: &gaconfig.ModelConfig{
			Name: c.Model,
		},
	}
	cfg.Merge(&overlay)

	return cfg
}

func (c *AgentConfig) loadDefaults() {
	d := gaconfig.DefaultAgentConfig()

	if c.Name == "" {
		c.Name = d.Name
	}
	if d.Provider != nil {
		if c.Provider == "" {
			c.Provider = d.Provider.Name
		}
		if c.BaseURL == "" {
			c.BaseURL = d.Provider.BaseURL
		}
	}
	if d.Model != nil && c.Model == "" {
		c.Model = d.Model.Name
	}
	if c.Options == nil {
		c.Options = make(map[string]any)
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModel); v != "" {
		c.Model = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func (c *AgentConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	return nil
}
