package preflight

import (
	"context"

	"shothook/internal/config"
	"shothook/internal/logging"
	"shothook/internal/viewer"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Shot outputs are read by both file actions
	if cfg.Actions.OutputManager || cfg.Actions.TransferFile {
		results = append(results, CheckDirectoryAccess("Project root", cfg.Paths.ProjectRoot))
	}
	if cfg.Actions.TransferFile {
		results = append(results, CheckDirectoryAccess("Transfer root", cfg.Paths.TransferRoot))
	}

	if cfg.Actions.Viewer {
		found := viewer.Discover(cfg.Viewer.Globs, cfg.Viewer.Label, logging.NewNop())
		results = append(results, CheckViewers(found.Applications()))
	}

	results = append(results, CheckHost(ctx, cfg.Host.ServerURL, pinger))

	if cfg.EventHub.Driver == config.EventHubAMQP {
		results = append(results, CheckBroker(cfg.EventHub.URL))
	}

	if cfg.Actions.TransferFile {
		results = append(results, CheckMailFromConfig(cfg))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
