package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sys/unix"

	"shothook/internal/services"
)

// Pinger verifies host credentials and connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckHost verifies that the asset tracking server is reachable and accepts
// the configured API credentials. It uses a 10-second timeout and a single
// attempt.
func CheckHost(ctx context.Context, serverURL string, pinger Pinger) Result {
	const name = "Host"

	if strings.TrimSpace(serverURL) == "" {
		return Result{Name: name, Detail: "missing server url"}
	}
	if pinger == nil {
		return Result{Name: name, Detail: "client unavailable"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pinger.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeHostError(err)}
	}
	return Result{Name: name, Passed: true, Detail: serverURL + " (credentials ok)"}
}

// CheckBroker verifies that the AMQP broker accepts a connection.
func CheckBroker(url string) Result {
	const name = "Event broker"

	if strings.TrimSpace(url) == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("connect failed (%v)", err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeHostError produces a human-readable summary for host check failures.
func summarizeHostError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (host unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (host unreachable)"
	}
	if errors.Is(err, services.ErrConfiguration) {
		return "credentials rejected (" + err.Error() + ")"
	}
	return err.Error()
}
