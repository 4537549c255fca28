package actions_test

import (
	"context"
	"testing"

	"shothook/internal/actions"
	"shothook/internal/eventhub"
	"shothook/internal/logging"
	"shothook/internal/testsupport"
)

func selectionEvent(topic string, entities ...actions.Entity) eventhub.Event {
	list := make([]any, 0, len(entities))
	for _, e := range entities {
		list = append(list, map[string]any{"entityId": e.ID, "entityType": e.Type})
	}
	ev := eventhub.NewEvent(topic, map[string]any{"selection": list})
	ev.Source = map[string]any{"id": "client", "user": map[string]any{"username": "ana"}}
	return ev
}

func TestParseSelectionAndNormalize(t *testing.T) {
	ev := selectionEvent(eventhub.TopicDiscover,
		actions.Entity{ID: "v1", Type: "AssetVersion"},
		actions.Entity{ID: "", Type: "task"},
	)
	sel := actions.ParseSelection(ev)
	if len(sel) != 1 {
		t.Fatalf("expected empty ids to be dropped, got %+v", sel)
	}
	for _, typ := range []string{"assetversion", "asset_version", "AssetVersion"} {
		if !(actions.Entity{ID: "x", Type: typ}).Is(actions.EntityAssetVersion) {
			t.Fatalf("expected %q to normalize to assetversion", typ)
		}
	}
	if _, ok := actions.Single(sel, actions.EntityAssetVersion); !ok {
		t.Fatal("expected single asset version")
	}
	if _, ok := actions.Single(append(sel, sel[0]), actions.EntityAssetVersion); ok {
		t.Fatal("expected two entities to fail Single")
	}
}

func TestCorrelationKeyIsOrderIndependent(t *testing.T) {
	a := actions.CorrelationKey("act", "ana", []actions.Entity{{ID: "1", Type: "Task"}, {ID: "2", Type: "task"}})
	b := actions.CorrelationKey("act", "ana", []actions.Entity{{ID: "2", Type: "task"}, {ID: "1", Type: "task"}})
	if a != b {
		t.Fatalf("expected stable key, got %q vs %q", a, b)
	}
	if a == actions.CorrelationKey("act", "bob", []actions.Entity{{ID: "1", Type: "task"}, {ID: "2", Type: "task"}}) {
		t.Fatal("expected user to change the key")
	}
}

func TestTaskGate(t *testing.T) {
	fake := testsupport.NewFakeHost()
	comp := fake.SeedShot("Compositing")
	gate := actions.TaskGate{Names: []string{"Compositing", "animation"}, Tasks: fake}
	ctx := context.Background()

	cases := []struct {
		name      string
		selection []actions.Entity
		want      bool
	}{
		{"empty", nil, false},
		{"single task", []actions.Entity{{ID: comp.TaskID, Type: "Task"}}, true},
		{"two tasks", []actions.Entity{{ID: comp.TaskID, Type: "Task"}, {ID: comp.TaskID, Type: "Task"}}, false},
		{"wrong type", []actions.Entity{{ID: comp.TaskID, Type: "assetversion"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := gate.Admit(ctx, tc.selection)
			if err != nil {
				t.Fatalf("Admit: %v", err)
			}
			if ok != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, ok)
			}
		})
	}

	lighting := fake.SeedShot("Lighting")
	if _, ok, _ := gate.Admit(ctx, []actions.Entity{{ID: lighting.TaskID, Type: "task"}}); ok {
		t.Fatal("expected Lighting to be rejected")
	}
	if _, _, err := gate.Admit(ctx, []actions.Entity{{ID: "missing", Type: "task"}}); err == nil {
		t.Fatal("expected lookup error for unknown task")
	}
}

func TestEnumeratorShape(t *testing.T) {
	item := actions.Enumerator("output_file", "Output file", []string{"a.mov", "b.mov"})
	options, ok := item["data"].([]actions.Option)
	if !ok || len(options) != 2 || options[1].Value != "b.mov" || options[1].Label != "b.mov" {
		t.Fatalf("unexpected enumerator %+v", item)
	}
	if item["type"] != "enumerator" || item["name"] != "output_file" {
		t.Fatalf("unexpected enumerator header %+v", item)
	}
}

type stubAction struct {
	discovered int
	launched   []actions.Request
}

func (s *stubAction) Identifier() string { return "stub_action" }
func (s *stubAction) Label() string      { return "Stub" }

func (s *stubAction) Discover(ctx context.Context, req actions.Request) ([]actions.DiscoverItem, error) {
	s.discovered++
	if len(req.Selection) != 1 {
		return nil, nil
	}
	return []actions.DiscoverItem{{ActionIdentifier: s.Identifier(), Label: s.Label()}}, nil
}

func (s *stubAction) Launch(ctx context.Context, req actions.Request) (map[string]any, error) {
	s.launched = append(s.launched, req)
	return actions.Labels("done"), nil
}

func TestRegisterRoutesByUserAndIdentifier(t *testing.T) {
	transport := eventhub.NewMemoryTransport(8)
	hub := eventhub.New(transport, "", logging.NewNop())
	stub := &stubAction{}
	if err := actions.Register(hub, stub, "ana", logging.NewNop()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ctx := context.Background()

	hub.Dispatch(ctx, selectionEvent(eventhub.TopicDiscover, actions.Entity{ID: "t1", Type: "task"}))
	hub.Dispatch(ctx, selectionEvent(eventhub.TopicDiscover))
	if stub.discovered != 2 {
		t.Fatalf("expected 2 discover calls, got %d", stub.discovered)
	}
	if got := len(transport.Replies(eventhub.TopicReply)); got != 1 {
		t.Fatalf("expected a single discover reply, got %d", got)
	}

	launch := selectionEvent(eventhub.TopicLaunch, actions.Entity{ID: "t1", Type: "task"})
	launch.Data["actionIdentifier"] = "stub_action"
	launch.Data["values"] = map[string]any{"output_file": "a.mov"}
	hub.Dispatch(ctx, launch)

	other := selectionEvent(eventhub.TopicLaunch, actions.Entity{ID: "t1", Type: "task"})
	other.Data["actionIdentifier"] = "someone_else"
	hub.Dispatch(ctx, other)

	if len(stub.launched) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(stub.launched))
	}
	req := stub.launched[0]
	if v, ok := req.Value("output_file"); !ok || v != "a.mov" {
		t.Fatalf("unexpected submitted value %q", v)
	}
	if req.CorrelationID != actions.CorrelationKey("stub_action", "ana", req.Selection) {
		t.Fatalf("unexpected correlation id %q", req.CorrelationID)
	}
}
