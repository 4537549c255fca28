package daemon_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"shothook/internal/config"
	"shothook/internal/daemon"
	"shothook/internal/eventhub"
	"shothook/internal/logging"
	"shothook/internal/testsupport"
	"shothook/internal/transfer"
	"shothook/internal/uploader"
	"shothook/internal/viewer"
)

type harness struct {
	cfg       *config.Config
	fake      *testsupport.FakeHost
	transport *eventhub.MemoryTransport
	daemon    *daemon.Daemon
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Host.Username = testsupport.EventUser
	for _, fn := range mutate {
		fn(cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	fake := testsupport.NewFakeHost()
	fake.SeedStatusCatalog()
	transport := eventhub.NewMemoryTransport(16)
	d, err := daemon.New(cfg, daemon.Dependencies{
		Client:    fake,
		Transport: transport,
		Ledger:    testsupport.MustOpenLedger(t, cfg),
		Viewers:   viewer.NewStore(),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return &harness{cfg: cfg, fake: fake, transport: transport, daemon: d}
}

func TestDaemonStartStop(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := h.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != h.cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	// Second start should fail
	if err := h.daemon.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	h.daemon.Stop()
	status = h.daemon.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRegistersEnabledHandlers(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Actions.Viewer = false
	})
	ctx := context.Background()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var names []string
	for _, sub := range h.daemon.Status(ctx).Subscriptions {
		names = append(names, sub.Name)
	}
	for _, want := range []string{uploader.Identifier + ".launch", transfer.Identifier + ".discover", "statussync"} {
		if !slices.Contains(names, want) {
			t.Fatalf("expected subscription %q in %v", want, names)
		}
	}
	for _, name := range names {
		if name == "djvviewer-launch-action.launch" {
			t.Fatal("viewer registered while disabled")
		}
	}
	if entries := h.daemon.Statuses(); len(entries) == 0 {
		t.Fatal("expected resolved status catalog")
	}
}

func TestDaemonAnswersDiscover(t *testing.T) {
	h := newHarness(t)
	shot := h.fake.SeedShot("Compositing")
	ctx := context.Background()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ev := testsupport.DiscoverEvent(testsupport.Selected{ID: shot.TaskID, Type: "task"})
	if err := h.daemon.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.transport.Replies(eventhub.TopicReply)) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	replies := h.transport.Replies(eventhub.TopicReply)
	if len(replies) != 2 {
		t.Fatalf("expected uploader and transfer replies, got %d", len(replies))
	}
	var ids []string
	for _, reply := range replies {
		if reply.InReplyToEvent != ev.ID {
			t.Fatalf("reply not linked to discover event: %+v", reply)
		}
		items, _ := reply.Data["items"].([]map[string]any)
		for _, item := range items {
			ids = append(ids, item["actionIdentifier"].(string))
		}
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{uploader.Identifier, transfer.Identifier}) {
		t.Fatalf("unexpected discovered actions %v", ids)
	}
}

func TestDaemonStartFailsWithoutStatusCatalog(t *testing.T) {
	h := newHarness(t)
	h.fake.Catalog = nil

	if err := h.daemon.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail without required statuses")
	}
	lock := flock.New(h.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected lock released after failed start (ok=%v err=%v)", ok, err)
	}
	_ = lock.Unlock()
}

func TestPublishRequiresRunningDaemon(t *testing.T) {
	h := newHarness(t)
	if err := h.daemon.Publish(context.Background(), eventhub.NewEvent(eventhub.TopicUpdate, nil)); err == nil {
		t.Fatal("expected publish to fail before start")
	}
}

func TestTestNotificationDisabled(t *testing.T) {
	h := newHarness(t)
	sent, message, err := h.daemon.TestNotification(context.Background(), "ops@example.com")
	if err != nil || sent {
		t.Fatalf("expected disabled mail to report not sent, got sent=%v err=%v", sent, err)
	}
	if message != "mail not enabled" {
		t.Fatalf("unexpected message %q", message)
	}
}
