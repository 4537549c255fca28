package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shothook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Host.ServerURL = "http://127.0.0.1:0"
	cfgVal.Host.APIUser = "pipeline"
	cfgVal.Host.APIKey = "test"
	cfgVal.Host.Username = "pipeline"
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ProjectRoot = filepath.Join(base, "projects") + string(os.PathSeparator)
	cfgVal.Paths.TransferRoot = filepath.Join(base, "transfer") + string(os.PathSeparator)
	cfgVal.Ledger.Path = filepath.Join(base, "state", "jobs.db")
	cfgVal.Mail.Enabled = false
	cfgVal.Viewer.Globs = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMail enables mail delivery to host:port.
func WithMail(host string, port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mail.Enabled = true
		b.cfg.Mail.Host = host
		b.cfg.Mail.Port = port
		b.cfg.Mail.From = "vfx@example.com"
		b.cfg.Mail.TLS = config.MailTLSNone
	}
}

// WithTaskNames overrides the task name gate.
func WithTaskNames(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Actions.TaskNames = names
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, a djv_view stub is written.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"djv_view"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Viewer.Globs = append(b.cfg.Viewer.Globs, filepath.Join(binDir, "djv_view*"))

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
