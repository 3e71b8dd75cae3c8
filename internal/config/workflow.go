package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kcvinod/triage/internal/oracle"
)

const (
	EnvWorkflowClassifyTimeout = "TRIAGE_WORKFLOW_CLASSIFY_TIMEOUT"
	EnvWorkflowDraftTimeout    = "TRIAGE_WORKFLOW_DRAFT_TIMEOUT"
	EnvWorkflowOracleRetries   = "TRIAGE_WORKFLOW_ORACLE_RETRIES"
	EnvWorkflowRetryBackoff    = "TRIAGE_WORKFLOW_RETRY_BACKOFF"
	EnvWorkflowMaxConcurrency  = "TRIAGE_WORKFLOW_MAX_CONCURRENCY"
	EnvWorkflowMaxBatchSize    = "TRIAGE_WORKFLOW_MAX_BATCH_SIZE"
)

// WorkflowConfig bounds oracle calls and concurrent triage runs.
// OracleRetries is the number of extra attempts after a failed call.
type WorkflowConfig struct {
	ClassifyTimeout string `toml:"classify_timeout"`
	DraftTimeout    string `toml:"draft_timeout"`
	OracleRetries   int    `toml:"oracle_retries"`
	RetryBackoff    string `toml:"retry_backoff"`
	MaxConcurrency  int    `toml:"max_concurrency"`
	MaxBatchSize    int    `toml:"max_batch_size"`
}

// ClassifyPolicy returns the oracle policy for classification calls.
func (c *WorkflowConfig) ClassifyPolicy() oracle.Policy {
	return c.policy(c.ClassifyTimeout)
}

// DraftPolicy returns the oracle policy for draft calls.
func (c *WorkflowConfig) DraftPolicy() oracle.Policy {
	return c.policy(c.DraftTimeout)
}

func (c *WorkflowConfig) policy(timeout string) oracle.Policy {
	d, _ := time.ParseDuration(timeout)
	backoff, _ := time.ParseDuration(c.RetryBackoff)
	return oracle.Policy{
		Timeout: d,
		Retries: c.OracleRetries,
		Backoff: backoff,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.ClassifyTimeout != "" {
		c.ClassifyTimeout = overlay.ClassifyTimeout
	}
	if overlay.DraftTimeout != "" {
		c.DraftTimeout = overlay.DraftTimeout
	}
	if overlay.OracleRetries != 0 {
		c.OracleRetries = overlay.OracleRetries
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
	if overlay.MaxConcurrency != 0 {
		c.MaxConcurrency = overlay.MaxConcurrency
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.ClassifyTimeout == "" {
		c.ClassifyTimeout = "30s"
	}
	if c.DraftTimeout == "" {
		c.DraftTimeout = "60s"
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "500ms"
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 50
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowClassifyTimeout); v != "" {
		c.ClassifyTimeout = v
	}
	if v := os.Getenv(EnvWorkflowDraftTimeout); v != "" {
		c.DraftTimeout = v
	}
	if v := os.Getenv(EnvWorkflowOracleRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.OracleRetries = n
		}
	}
	if v := os.Getenv(EnvWorkflowRetryBackoff); v != "" {
		c.RetryBackoff = v
	}
	if v := os.Getenv(EnvWorkflowMaxConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
	if v := os.Getenv(EnvWorkflowMaxBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatchSize = n
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if _, err := time.ParseDuration(c.ClassifyTimeout); err != nil {
		return fmt.Errorf("invalid classify_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.DraftTimeout); err != nil {
		return fmt.Errorf("invalid draft_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryBackoff); err != nil {
		return fmt.Errorf("invalid retry_backoff: %w", err)
	}
	if c.OracleRetries < 0 {
		return fmt.Errorf("oracle_retries must not be negative")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be at least 1")
	}
	return nil
}
