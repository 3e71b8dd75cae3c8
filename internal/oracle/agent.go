package oracle

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

type agentOracle struct {
	cfg gaconfig.AgentConfig
}

// NewAgent returns an Oracle backed by a go-agents chat agent. A fresh agent
// is created per call so concurrent runs share no client state.
func NewAgent(cfg gaconfig.AgentConfig) Oracle {
	return &agentOracle{cfg: cfg}
}

func (o *agentOracle) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := o.cfg

	a, err := agent.New(&cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrUnavailable, err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: chat call: %w", ErrUnavailable, err)
	}

	return resp.Content(), nil
}
