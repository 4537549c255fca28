package statussync_test

import (
	"context"
	"errors"
	"testing"

	"shothook/internal/eventhub"
	"shothook/internal/host"
	"shothook/internal/logging"
	"shothook/internal/statuses"
	"shothook/internal/statussync"
	"shothook/internal/testsupport"
)

func catalog() *statuses.Catalog {
	return statuses.New(map[statuses.Name]string{
		statuses.NotStarted: "ns",
		statuses.Assigned:   "as",
		statuses.ForReview:  "fr",
		statuses.OnHold:     "oh",
		statuses.Omitted:    "om",
	})
}

func updateEvent(changes ...map[string]any) eventhub.Event {
	list := make([]any, 0, len(changes))
	for _, c := range changes {
		list = append(list, c)
	}
	return eventhub.NewEvent(eventhub.TopicUpdate, map[string]any{"entities": list})
}

func taskChange(id string) map[string]any {
	return map[string]any{"entityId": id, "entityType": "task", "action": "update"}
}

func setup(status string, assignees int) (*testsupport.FakeHost, *statussync.Synchronizer) {
	fake := testsupport.NewFakeHost()
	fake.Tasks["t1"] = host.Task{ID: "t1", Name: "Compositing", StatusID: status}
	for i := 0; i < assignees; i++ {
		fake.Assignees["t1"] = append(fake.Assignees["t1"], host.User{ID: "u"})
	}
	return fake, statussync.New(fake, catalog(), logging.NewNop())
}

func TestAssignmentRules(t *testing.T) {
	cases := []struct {
		name      string
		status    string
		assignees int
		want      string
		writes    int
	}{
		{"not started gains assignee", "ns", 1, "as", 1},
		{"not started without assignee", "ns", 0, "ns", 0},
		{"assigned loses assignee", "as", 0, "ns", 1},
		{"for review loses assignee", "fr", 0, "ns", 1},
		{"assigned keeps assignee", "as", 2, "as", 0},
		{"on hold ignored without assignees", "oh", 0, "oh", 0},
		{"on hold ignored with assignees", "oh", 3, "oh", 0},
		{"omitted ignored", "om", 0, "om", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake, sync := setup(tc.status, tc.assignees)
			if _, err := sync.Handle(context.Background(), updateEvent(taskChange("t1"))); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got := fake.Tasks["t1"].StatusID; got != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, got)
			}
			if got := len(fake.StatusWrites()); got != tc.writes {
				t.Fatalf("expected %d writes, got %d", tc.writes, got)
			}
		})
	}
}

func TestFrozenTaskDoesNotAbortLaterEntities(t *testing.T) {
	fake, sync := setup("oh", 0)
	fake.Tasks["t2"] = host.Task{ID: "t2", StatusID: "ns"}
	fake.Assignees["t2"] = []host.User{{ID: "u"}}

	if _, err := sync.Handle(context.Background(), updateEvent(taskChange("t1"), taskChange("t2"))); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if fake.Tasks["t2"].StatusID != "as" {
		t.Fatalf("expected second task assigned, got %s", fake.Tasks["t2"].StatusID)
	}
}

func TestAssetVersionMovesTaskToReviewOnce(t *testing.T) {
	fake, sync := setup("as", 1)
	fake.Versions["v1"] = host.AssetVersion{ID: "v1", TaskID: "t1"}
	ev := updateEvent(map[string]any{"entityId": "v1", "entityType": "AssetVersion", "action": "update"})

	for i := 0; i < 3; i++ {
		if _, err := sync.Handle(context.Background(), ev); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if fake.Tasks["t1"].StatusID != "fr" {
		t.Fatalf("expected FOR_REVIEW, got %s", fake.Tasks["t1"].StatusID)
	}
	if got := len(fake.StatusWrites()); got != 1 {
		t.Fatalf("expected a single write, got %d", got)
	}
}

func TestIgnoresOtherActionsAndTypes(t *testing.T) {
	fake, sync := setup("ns", 1)
	ev := updateEvent(
		map[string]any{"entityId": "t1", "entityType": "task", "action": "add"},
		map[string]any{"entityId": "t1", "entityType": "shot", "action": "update"},
	)
	if _, err := sync.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(fake.StatusWrites()) != 0 {
		t.Fatal("expected no writes")
	}
}

func TestLookupFailuresPropagate(t *testing.T) {
	_, sync := setup("ns", 1)
	if _, err := sync.Handle(context.Background(), updateEvent(taskChange("unknown"))); err == nil {
		t.Fatal("expected unknown task to fail")
	}

	fake, sync := setup("ns", 1)
	boom := errors.New("host down")
	fake.SetError("TaskAssignees", boom)
	if _, err := sync.Handle(context.Background(), updateEvent(taskChange("t1"))); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped host error, got %v", err)
	}
}

func TestRegisterSubscribesWithoutReply(t *testing.T) {
	fake, sync := setup("ns", 1)
	transport := eventhub.NewMemoryTransport(4)
	hub := eventhub.New(transport, "", logging.NewNop())
	if err := sync.Register(hub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	hub.Dispatch(context.Background(), updateEvent(taskChange("t1")))
	hub.Dispatch(context.Background(), updateEvent(taskChange("missing")))
	if fake.Tasks["t1"].StatusID != "as" {
		t.Fatalf("expected ASSIGNED via hub, got %s", fake.Tasks["t1"].StatusID)
	}
	if len(transport.Replies(eventhub.TopicReply)) != 0 {
		t.Fatal("update events must not produce replies")
	}
	if hub.Stats().Errors != 1 {
		t.Fatalf("expected failed lookup counted, got %+v", hub.Stats())
	}
}
