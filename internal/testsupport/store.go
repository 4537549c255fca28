package testsupport

import (
	"context"
	"testing"
	"time"

	"shothook/internal/config"
	"shothook/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartJob inserts a running record for tests.
func StartJob(t testing.TB, store *ledger.Store, id, kind string, startedAt time.Time) {
	t.Helper()

	if err := store.Start(context.Background(), ledger.Record{ID: id, Kind: kind, StartedAt: startedAt}); err != nil {
		t.Fatalf("store.Start: %v", err)
	}
}
