package daemonctl

import (
	"context"
	"errors"
	"time"

	"shothook/internal/config"
	"shothook/internal/ipc"
	"shothook/internal/ledger"
	"shothook/internal/preflight"
)

// Snapshot combines daemon status with local readiness checks.
type Snapshot struct {
	Status *ipc.StatusResponse
	Checks []preflight.Result
}

// BuildStatusSnapshot asks the daemon for its status. When it is not running
// the job totals are read from the ledger directly.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, pinger preflight.Pinger) (Snapshot, error) {
	if cfg == nil {
		return Snapshot{}, errors.New("configuration not available")
	}
	status := &ipc.StatusResponse{}
	if client, err := ipc.Dial(socketPath); err == nil {
		if resp, err := client.Status(); err == nil && resp != nil {
			status = resp
		}
		_ = client.Close()
	}
	if !status.Running {
		offlineTotals(ctx, cfg, status)
	}
	return Snapshot{Status: status, Checks: preflight.RunAll(ctx, cfg, pinger)}, nil
}

func offlineTotals(ctx context.Context, cfg *config.Config, status *ipc.StatusResponse) {
	store, err := ledger.Open(cfg)
	if err != nil {
		return
	}
	defer store.Close()
	status.LedgerTarget = store.Target()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	totals, err := store.Stats(ctx)
	if err != nil {
		return
	}
	status.JobTotals = make(map[string]int, len(totals))
	for state, n := range totals {
		status.JobTotals[string(state)] = n
	}
}
