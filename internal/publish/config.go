package publish

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds Kafka connection and topic settings. Publishing is disabled
// when no brokers are configured.
type Config struct {
	Brokers          []string `toml:"brokers"`
	EscalationsTopic string   `toml:"escalations_topic"`
	RepliesTopic     string   `toml:"replies_topic"`
	WriteTimeout     string   `toml:"write_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Brokers          string
	EscalationsTopic string
	RepliesTopic     string
	WriteTimeout     string
}

// Enabled reports whether any brokers are configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Brokers != nil {
		c.Brokers = overlay.Brokers
	}
	if overlay.EscalationsTopic != "" {
		c.EscalationsTopic = overlay.EscalationsTopic
	}
	if overlay.RepliesTopic != "" {
		c.RepliesTopic = overlay.RepliesTopic
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.EscalationsTopic == "" {
		c.EscalationsTopic = "triage.escalations"
	}
	if c.RepliesTopic == "" {
		c.RepliesTopic = "triage.replies"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Brokers != "" {
		if v := os.Getenv(env.Brokers); v != "" {
			c.Brokers = c.Brokers[:0:0]
			for b := range strings.SplitSeq(v, ",") {
				if trimmed := strings.TrimSpace(b); trimmed != "" {
					c.Brokers = append(c.Brokers, trimmed)
				}
			}
		}
	}
	if env.EscalationsTopic != "" {
		if v := os.Getenv(env.EscalationsTopic); v != "" {
			c.EscalationsTopic = v
		}
	}
	if env.RepliesTopic != "" {
		if v := os.Getenv(env.RepliesTopic); v != "" {
			c.RepliesTopic = v
		}
	}
	if env.WriteTimeout != "" {
		if v := os.Getenv(env.WriteTimeout); v != "" {
			c.WriteTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.EscalationsTopic == c.RepliesTopic {
		return fmt.Errorf("escalations_topic and replies_topic must differ")
	}
	if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("invalid write_timeout: %w", err)
	}
	return nil
}
