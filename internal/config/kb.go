package config

import (
	"fmt"
	"os"
	"strconv"
)

// Knowledge base sources.
const (
	KBSourceStatic = "static"
	KBSourceSQLite = "sqlite"
	KBSourceNone   = "none"
)

const (
	EnvKBSource = "TRIAGE_KB_SOURCE"
	EnvKBPath   = "TRIAGE_KB_PATH"
	EnvKBLimit  = "TRIAGE_KB_LIMIT"
)

// KBConfig selects the knowledge base backing drafted replies.
type KBConfig struct {
	Source string `toml:"source"`
	Path   string `toml:"path"`
	Limit  int    `toml:"limit"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *KBConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *KBConfig) Merge(overlay *KBConfig) {
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Limit != 0 {
		c.Limit = overlay.Limit
	}
}

func (c *KBConfig) loadDefaults() {
	if c.Source == "" {
		c.Source = KBSourceStatic
	}
	if c.Path == "" {
		c.Path = "data/kb.db"
	}
	if c.Limit == 0 {
		c.Limit = 5
	}
}

func (c *KBConfig) loadEnv() {
	if v := os.Getenv(EnvKBSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvKBPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvKBLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limit = n
		}
	}
}

func (c *KBConfig) validate() error {
	switch c.Source {
	case KBSourceStatic, KBSourceSQLite, KBSourceNone:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
	return nil
}
