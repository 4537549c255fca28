package preflight

import (
	"fmt"
	"strings"

	"shothook/internal/config"
	"shothook/internal/deps"
	"shothook/internal/viewer"
)

// CheckMailFromConfig evaluates transfer mail settings without sending.
func CheckMailFromConfig(cfg *config.Config) Result {
	const name = "Mail"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Mail.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Mail.Host) == "" {
		return Result{Name: name, Detail: "Missing SMTP host"}
	}
	if strings.TrimSpace(cfg.Mail.From) == "" {
		return Result{Name: name, Detail: "Missing sender address"}
	}
	if cfg.Mail.Username != "" && cfg.Mail.Password == "" {
		return Result{Name: name, Detail: "Missing SMTP password (set SHOTHOOK_SMTP_PASSWORD)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s:%d as %s", cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)}
}

// DescribeEventHub renders the configured transport for status output.
func DescribeEventHub(cfg *config.Config) string {
	if cfg == nil {
		return "Unknown"
	}
	switch cfg.EventHub.Driver {
	case config.EventHubAMQP:
		return fmt.Sprintf("amqp exchange %q queue %q", cfg.EventHub.Exchange, cfg.EventHub.Queue)
	default:
		return "in-process (events via shothook emit)"
	}
}

// CheckViewers verifies that at least one discovered viewer installation can
// be executed.
func CheckViewers(apps []viewer.Application) Result {
	const name = "Viewer"

	if len(apps) == 0 {
		return Result{Name: name, Detail: "No installation found (set viewer.globs)"}
	}
	reqs := make([]deps.Requirement, 0, len(apps))
	for _, app := range apps {
		reqs = append(reqs, deps.Requirement{Name: app.Identifier, Command: app.Path})
	}
	statuses := deps.CheckBinaries(reqs)
	ready := deps.Available(statuses)
	if len(ready) == 0 {
		return Result{Name: name, Detail: statuses[0].Detail}
	}
	names := make([]string, 0, len(ready))
	for _, s := range ready {
		names = append(names, s.Name)
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(names, ", ")}
}
