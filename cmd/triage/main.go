// Command triage runs a single support email through the triage workflow
// and prints the outcome as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/infrastructure"
	"github.com/kcvinod/triage/internal/triage"
	"github.com/kcvinod/triage/internal/workflow"
)

func main() {
	file := flag.String("file", "", "Email file to triage (reads stdin when empty)")
	publish := flag.Bool("publish", false, "Publish artifacts to the configured brokers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	raw, err := readInput(*file, os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := run(ctx, cfg, raw, *publish)
	if err != nil {
		log.Fatal("triage failed: ", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("encode result: ", err)
	}
}

func run(ctx context.Context, cfg *config.Config, raw string, publish bool) (*triage.Outcome, error) {
	infra, err := infrastructure.NewStandalone(cfg)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
	infra.Lifecycle.WaitForStartup()

	logger := infra.Logger.With("module", "cli")

	wf, err := workflow.New(&workflow.Runtime{
		Oracle:   infra.Oracle,
		KB:       infra.Knowledge,
		Classify: cfg.Workflow.ClassifyPolicy(),
		Draft:    cfg.Workflow.DraftPolicy(),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build workflow: %w", err)
	}

	publisher := infra.Publisher
	if !publish {
		publisher = nil
	}

	sys := triage.New(wf, nil, publisher, triage.Config{MaxConcurrency: 1}, logger)
	return sys.Triage(ctx, raw)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
