package inbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds inbox watcher settings. The watcher is disabled when Dir is
// empty. Files are left in place when ProcessedDir or FailedDir is unset and
// are triaged again by the startup scan.
type Config struct {
	Dir          string `toml:"dir"`
	Extension    string `toml:"extension"`
	ProcessedDir string `toml:"processed_dir"`
	FailedDir    string `toml:"failed_dir"`
	Settle       string `toml:"settle"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Dir          string
	Extension    string
	ProcessedDir string
	FailedDir    string
	Settle       string
}

// Enabled reports whether an inbox directory is configured.
func (c *Config) Enabled() bool {
	return c.Dir != ""
}

// SettleDuration returns Settle as a time.Duration.
func (c *Config) SettleDuration() time.Duration {
	d, _ := time.ParseDuration(c.Settle)
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
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Extension != "" {
		c.Extension = overlay.Extension
	}
	if overlay.ProcessedDir != "" {
		c.ProcessedDir = overlay.ProcessedDir
	}
	if overlay.FailedDir != "" {
		c.FailedDir = overlay.FailedDir
	}
	if overlay.Settle != "" {
		c.Settle = overlay.Settle
	}
}

func (c *Config) loadDefaults() {
	if c.Extension == "" {
		c.Extension = ".eml"
	}
	if c.Settle == "" {
		c.Settle = "2s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Dir != "" {
		if v := os.Getenv(env.Dir); v != "" {
			c.Dir = v
		}
	}
	if env.Extension != "" {
		if v := os.Getenv(env.Extension); v != "" {
			c.Extension = v
		}
	}
	if env.ProcessedDir != "" {
		if v := os.Getenv(env.ProcessedDir); v != "" {
			c.ProcessedDir = v
		}
	}
	if env.FailedDir != "" {
		if v := os.Getenv(env.FailedDir); v != "" {
			c.FailedDir = v
		}
	}
	if env.Settle != "" {
		if v := os.Getenv(env.Settle); v != "" {
			c.Settle = v
		}
	}
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	d, err := time.ParseDuration(c.Settle)
	if err != nil {
		return fmt.Errorf("invalid settle: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("settle must not be negative")
	}
	if !c.Enabled() {
		return nil
	}
	for _, dir := range []string{c.ProcessedDir, c.FailedDir} {
		if dir != "" && filepath.Clean(dir) == filepath.Clean(c.Dir) {
			return fmt.Errorf("processed_dir and failed_dir must differ from dir")
		}
	}
	return nil
}
