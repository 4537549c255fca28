package shotpath_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"shothook/internal/host"
	"shothook/internal/shotpath"
	"shothook/internal/testsupport"
)

func sampleContext() shotpath.Context {
	return shotpath.Context{Show: "jelly", Episode: "102", Act: "2", Shot: "010", Shorthand: "JB"}
}

func TestFromHierarchy(t *testing.T) {
	task := host.Task{ID: "t", Name: "Compositing", ObjectType: host.ObjectTypeTask}
	ancestors := []host.Link{
		{Name: "jelly", ObjectType: "Project"},
		{Name: "102", ObjectType: "Episode"},
		{Name: "seq3", ObjectType: "Sequence"},
		{Name: "010", ObjectType: "Shot"},
	}
	project := host.Project{Name: "jelly", CustomAttributes: map[string]string{"proj": " JB "}}
	got := shotpath.FromHierarchy(task, ancestors, project)
	want := shotpath.Context{Show: "jelly", Episode: "102", Act: "seq3", Shot: "010", Shorthand: "JB"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.ShotName() != "JB102_seq3_010" {
		t.Fatalf("unexpected shot name %q", got.ShotName())
	}
}

func TestFromHierarchyTaskIsShot(t *testing.T) {
	task := host.Task{ID: "s", Name: "020", ObjectType: host.ObjectTypeShot}
	ancestors := []host.Link{{Name: "1", ObjectType: "Act"}, {Name: "101", ObjectType: "Episode"}}
	got := shotpath.FromHierarchy(task, ancestors, host.Project{Name: "jelly"})
	if got.Shot != "020" {
		t.Fatalf("expected task to fill shot, got %+v", got)
	}
	if got.Complete() {
		t.Fatal("expected missing shorthand to leave context incomplete")
	}
	if !reflect.DeepEqual(got.Missing(), []string{"shorthand"}) {
		t.Fatalf("unexpected missing list %v", got.Missing())
	}
}

func TestLayouts(t *testing.T) {
	c := sampleContext()
	if got := shotpath.Legacy.Layout(c, "out"); got != "jelly/102/shots/JB102_2_010/out/" {
		t.Fatalf("unexpected legacy layout %q", got)
	}
	if got := shotpath.Episodes.Layout(c, "out"); got != "jelly/episodes/102/shots/JB102_2_010/out/" {
		t.Fatalf("unexpected episodes layout %q", got)
	}
	if got := shotpath.EditorialDestination(c); got != "jelly/102/vfx_for_editorial/2/" {
		t.Fatalf("unexpected destination %q", got)
	}
}

func TestResolveOutcomes(t *testing.T) {
	c := sampleContext()
	cases := []struct {
		name    string
		create  []string
		kind    shotpath.ResolutionKind
		pick    string
		entries []string
	}{
		{name: "neither", kind: shotpath.Missing},
		{name: "legacy only", create: []string{"jelly/102/shots/JB102_2_010/out"}, kind: shotpath.Selected, pick: "legacy", entries: []string{"shot010_comp_v1.mov"}},
		{name: "episodes only", create: []string{"jelly/episodes/102/shots/JB102_2_010/out"}, kind: shotpath.Selected, pick: "episodes", entries: []string{"shot010_comp_v1.mov"}},
		{name: "both", create: []string{"jelly/102/shots/JB102_2_010/out", "jelly/episodes/102/shots/JB102_2_010/out"}, kind: shotpath.Ambiguous},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for _, dir := range tc.create {
				testsupport.WriteFiles(t, filepath.Join(root, filepath.FromSlash(dir)), "shot010_comp_v1.mov")
			}
			disk := shotpath.NewLocalDisk(root)
			res := shotpath.Resolve(disk, c, "out", shotpath.DefaultStrategies)
			if res.Kind != tc.kind {
				t.Fatalf("expected kind %d, got %d", tc.kind, res.Kind)
			}
			if len(res.Candidates) != 2 {
				t.Fatalf("expected a candidate per strategy, got %d", len(res.Candidates))
			}
			if tc.kind != shotpath.Selected {
				return
			}
			if res.Selected.Strategy != tc.pick {
				t.Fatalf("expected %s selected, got %s", tc.pick, res.Selected.Strategy)
			}
			names, err := disk.List(res.Selected.Relative)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if !reflect.DeepEqual(names, tc.entries) {
				t.Fatalf("expected %v, got %v", tc.entries, names)
			}
		})
	}
}

func TestResolveIncompleteContext(t *testing.T) {
	res := shotpath.Resolve(shotpath.NewLocalDisk(t.TempDir()), shotpath.Context{Show: "jelly"}, "out", shotpath.DefaultStrategies)
	if res.Kind != shotpath.Incomplete {
		t.Fatalf("expected incomplete, got %d", res.Kind)
	}
	for _, cand := range res.Candidates {
		if cand.Outcome != shotpath.OutcomeIncomplete {
			t.Fatalf("expected incomplete outcome, got %s", cand.Outcome)
		}
	}
}

func TestLocalDiskListMissingDirectory(t *testing.T) {
	disk := shotpath.NewLocalDisk(t.TempDir())
	names, err := disk.List("nope/")
	if err != nil || names != nil {
		t.Fatalf("expected empty listing, got %v err=%v", names, err)
	}
	if err := os.MkdirAll(disk.Path("a/b/"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !disk.IsDir("a/b/") {
		t.Fatal("expected directory to exist")
	}
}
