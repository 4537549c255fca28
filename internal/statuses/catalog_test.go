package statuses_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shothook/internal/host"
	"shothook/internal/services"
	"shothook/internal/statuses"
)

type staticLister struct {
	statuses []host.Status
	err      error
}

func (s staticLister) Statuses(context.Context) ([]host.Status, error) {
	return s.statuses, s.err
}

func hostCatalog() staticLister {
	return staticLister{statuses: []host.Status{
		{ID: "ns", Name: "Not started"},
		{ID: "as", Name: "assigned"},
		{ID: "fr", Name: "For Review"},
		{ID: "oh", Name: "On-Hold"},
		{ID: "om", Name: "OMITTED"},
		{ID: "ap", Name: "Approved"},
	}}
}

func TestResolveMatchesNamesCaseInsensitively(t *testing.T) {
	cat, err := statuses.Resolve(context.Background(), hostCatalog(), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	cases := map[statuses.Name]string{
		statuses.NotStarted: "ns",
		statuses.Assigned:   "as",
		statuses.ForReview:  "fr",
		statuses.OnHold:     "oh",
		statuses.Omitted:    "om",
		statuses.Approved:   "ap",
	}
	for name, want := range cases {
		if got, ok := cat.ID(name); !ok || got != want {
			t.Fatalf("%s: expected %q, got %q (ok=%v)", name, want, got, ok)
		}
	}
	if _, ok := cat.ID(statuses.Output); ok {
		t.Fatal("expected OUTPUT to stay unresolved")
	}
	if name, ok := cat.Lookup("fr"); !ok || name != statuses.ForReview {
		t.Fatalf("expected reverse lookup of fr, got %q", name)
	}
}

func TestResolvePrefersConfiguredIDs(t *testing.T) {
	cat, err := statuses.Resolve(context.Background(), hostCatalog(), map[string]string{"ASSIGNED": "custom-assigned"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cat.Is("custom-assigned", statuses.Assigned) {
		t.Fatal("expected configured id to win")
	}
	for _, entry := range cat.Entries() {
		if entry.Name == statuses.Assigned && entry.Source != "config" {
			t.Fatalf("expected config source, got %q", entry.Source)
		}
	}
}

func TestResolveFailsOnMissingRequired(t *testing.T) {
	lister := staticLister{statuses: []host.Status{{ID: "ns", Name: "Not Started"}}}
	_, err := statuses.Resolve(context.Background(), lister, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "FOR_REVIEW") {
		t.Fatalf("expected missing names in error, got %v", err)
	}
}

func TestResolvePropagatesListError(t *testing.T) {
	boom := errors.New("offline")
	if _, err := statuses.Resolve(context.Background(), staticLister{err: boom}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}

func TestEntriesLifecycleOrder(t *testing.T) {
	cat := statuses.New(map[statuses.Name]string{
		statuses.Output:     "o",
		statuses.NotStarted: "n",
		statuses.ForReview:  "f",
	})
	entries := cat.Entries()
	if len(entries) != 3 || entries[0].Name != statuses.NotStarted || entries[2].Name != statuses.Output {
		t.Fatalf("unexpected order %+v", entries)
	}
	if entries[1].Status.Name != "For Review" {
		t.Fatalf("unexpected display name %q", entries[1].Status.Name)
	}
}
