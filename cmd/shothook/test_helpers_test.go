package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shothook/internal/config"
	"shothook/internal/daemon"
	"shothook/internal/eventhub"
	"shothook/internal/ipc"
	"shothook/internal/ledger"
	"shothook/internal/logging"
	"shothook/internal/testsupport"
	"shothook/internal/viewer"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *ledger.Store
	host       *testsupport.FakeHost
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Host.Username = testsupport.EventUser
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	t.Setenv("HOME", testsupport.BaseDir(cfg))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "shothook.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenLedger(t, cfg)
	fake := testsupport.NewFakeHost()
	fake.SeedStatusCatalog()

	stream := logging.NewStreamHub(256)
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "cli-test.log")},
		Stream:      stream,
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	d, err := daemon.New(cfg, daemon.Dependencies{
		Client:    fake,
		Transport: eventhub.NewMemoryTransport(16),
		Ledger:    store,
		Viewers:   viewer.NewStore(viewer.Application{Identifier: "djv_view_1.1.0", Label: "DJV View", Variant: "1.1.0", Path: "/opt/djv-1.1.0/bin/djv_view"}),
		LogStream: stream,
	}, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	if err := d.Start(ctx); err != nil {
		cancel()
		srv.Close()
		t.Fatalf("daemon start: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		host:       fake,
		daemon:     d,
		server:     srv,
		socketPath: cfg.SocketPath(),
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
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

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
