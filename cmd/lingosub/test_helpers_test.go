package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lingosub/internal/config"
	"lingosub/internal/daemon"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/project"
	"lingosub/internal/queue"
	"lingosub/internal/testsupport"
	"lingosub/internal/workflow"
)

// offlineAPI points the CLI at a port nothing listens on.
const offlineAPI = "127.0.0.1:1"

type completeRunner struct{}

func (completeRunner) Run(context.Context, string) (pipeline.State, error) {
	return pipeline.State{Stage: pipeline.StageComplete, Status: pipeline.StatusComplete}, nil
}

// blockingRunner holds every run until the daemon shuts down.
type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, _ string) (pipeline.State, error) {
	<-ctx.Done()
	return pipeline.State{}, ctx.Err()
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	projects   *project.Store
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
}

// setupCLITestEnv writes a config file and, when runner is non-nil, starts
// a daemon that executes runs with it.
func setupCLITestEnv(t *testing.T, runner workflow.Runner, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "lingosub.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		projects:   testsupport.NewProjectStore(t, cfg),
		apiAddr:    offlineAPI,
		configPath: configPath,
	}
	if runner == nil {
		return env
	}

	env.store = testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, env.store, runner, logging.NewNop())
	d, err := daemon.New(cfg, env.store, env.projects, mgr, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	env.daemon = d
	env.apiAddr = d.APIAddress()
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.apiAddr, e.configPath)
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", apiAddr}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
