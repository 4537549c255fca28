package viewer

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Starter runs a detached process.
type Starter interface {
	Start(ctx context.Context, name string, args ...string) error
}

type execStarter struct{}

// NewStarter returns a Starter backed by os/exec. Processes outlive the
// request that started them; their exit status is reaped in the background.
func NewStarter() Starter {
	return execStarter{}
}

func (execStarter) Start(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// Command builds the argv that opens app with an optional file.
func Command(app Application, file string) []string {
	return commandFor(runtime.GOOS, app, file)
}

func commandFor(goos string, app Application, file string) []string {
	var argv []string
	if goos == "darwin" && strings.HasSuffix(app.Path, ".app") {
		argv = []string{"open", "-a", app.Path}
		if file != "" {
			argv = append(argv, "--args", file)
		}
		return argv
	}
	argv = []string{app.Path}
	if file != "" {
		argv = append(argv, file)
	}
	return argv
}
