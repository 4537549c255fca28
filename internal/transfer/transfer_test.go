package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"shothook/internal/actions"
	"shothook/internal/config"
	"shothook/internal/host"
	"shothook/internal/jobs"
	"shothook/internal/ledger"
	"shothook/internal/logging"
	"shothook/internal/notifications"
	"shothook/internal/sessions"
	"shothook/internal/testsupport"
	"shothook/internal/transfer"
)

type fixture struct {
	cfg    *config.Config
	fake   *testsupport.FakeHost
	shot   testsupport.Shot
	store  *sessions.MemoryStore
	runner *jobs.Runner
	ledger *ledger.Store
	smtp   *testsupport.SMTPServer
	action *transfer.Action
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	smtp := testsupport.StartSMTPServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithMail(smtp.Host, smtp.Port))
	fake := testsupport.NewFakeHost()
	shot := fake.SeedShot("Compositing")
	store := sessions.NewMemoryStore(time.Hour)
	led := testsupport.MustOpenLedger(t, cfg)
	runner := jobs.New(led, logging.NewNop())
	t.Cleanup(runner.Stop)
	return &fixture{
		cfg:    cfg,
		fake:   fake,
		shot:   shot,
		store:  store,
		runner: runner,
		ledger: led,
		smtp:   smtp,
		action: transfer.New(cfg, fake, store, runner, notifications.NewService(cfg), logging.NewNop()),
	}
}

func (f *fixture) outDir(t *testing.T, files ...string) string {
	t.Helper()
	dir := filepath.Join(f.cfg.Paths.ProjectRoot, "jelly", "102", "shots", "JB102_2_010", "out")
	testsupport.WriteFiles(t, dir, files...)
	return dir
}

func (f *fixture) destDir() string {
	return filepath.Join(f.cfg.Paths.TransferRoot, "jelly", "102", "vfx_for_editorial", "2")
}

func (f *fixture) launch(t *testing.T, values map[string]any) map[string]any {
	t.Helper()
	ev := testsupport.LaunchEvent(transfer.Identifier, values, testsupport.Selected{ID: f.shot.TaskID, Type: "task"})
	res, err := f.action.Launch(context.Background(), actions.NewRequest(transfer.Identifier, ev))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	return res
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.runner.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func items(t *testing.T, res map[string]any) []actions.Item {
	t.Helper()
	list, ok := res["items"].([]actions.Item)
	if !ok {
		t.Fatalf("expected items in %+v", res)
	}
	return list
}

func labelValues(t *testing.T, res map[string]any) []string {
	t.Helper()
	var out []string
	for _, item := range items(t, res) {
		if item["type"] == "label" {
			out = append(out, item["value"].(string))
		}
	}
	return out
}

func TestPhaseOneForm(t *testing.T) {
	f := newFixture(t)
	f.outDir(t, "comp_v002.mov", "comp_v001.mov")
	testsupport.WriteFiles(t, f.destDir(), "old_a.mov", "old_b.mov")

	list := items(t, f.launch(t, nil))
	if len(list) != 9 {
		t.Fatalf("expected nine items, got %d: %+v", len(list), list)
	}
	if list[0]["value"] != "Transfers a file to the editorial server. WARNING: Currently overwrites existing files!" {
		t.Fatalf("unexpected intro %+v", list[0])
	}
	if list[1]["value"] != "Current shot: JB102_2_010" {
		t.Fatalf("unexpected shot %+v", list[1])
	}
	if list[2]["name"] != transfer.FieldTransferFile || list[2]["label"] != "File" {
		t.Fatalf("unexpected enumerator %+v", list[2])
	}
	if got := list[2]["data"].([]actions.Option); len(got) != 2 || got[0].Value != "comp_v001.mov" {
		t.Fatalf("unexpected options %+v", got)
	}
	if list[3]["value"] != "" || list[6]["value"] != "" {
		t.Fatal("expected blank spacer labels")
	}
	if dest := list[4]["value"].(string); !strings.HasPrefix(dest, "Destination: ") || !strings.Contains(dest, filepath.Join("jelly", "102", "vfx_for_editorial", "2")) {
		t.Fatalf("unexpected destination label %q", dest)
	}
	if list[5]["type"] != "textarea" || list[5]["label"] != "Transfer folder:" || list[5]["value"] != "old_a.mov\nold_b.mov" {
		t.Fatalf("unexpected listing %+v", list[5])
	}
	if list[7]["value"] != "Notification send to assistant editors: Ann Editor and Ben Editor" {
		t.Fatalf("unexpected editors %+v", list[7])
	}
	if list[8]["value"] != "Copies sent to artist(s) and supervisor(s): Cara Artist and Sam Super" {
		t.Fatalf("unexpected copies %+v", list[8])
	}
}

func TestPhaseTwoCopiesAdvancesStatusAndMails(t *testing.T) {
	f := newFixture(t)
	f.outDir(t, "comp_v003.mov")
	if err := os.MkdirAll(f.destDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.destDir(), "comp_v003.mov"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.launch(t, nil)

	got := labelValues(t, f.launch(t, map[string]any{transfer.FieldTransferFile: "comp_v003.mov"}))
	want := []string{"Copying file:", "File: comp_v003.mov", "Destination: jelly/102/vfx_for_editorial/2/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if status := f.fake.Tasks[f.shot.TaskID].StatusID; status != "st-delivered" {
		t.Fatalf("expected workflow index 4 status, got %s", status)
	}
	f.drain(t)

	data, err := os.ReadFile(filepath.Join(f.destDir(), "comp_v003.mov"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) == "stale" {
		t.Fatal("expected destination overwritten")
	}

	msgs := f.smtp.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one notice, got %d", len(msgs))
	}
	if len(msgs[0].Recipients) != 4 {
		t.Fatalf("expected editors plus copies, got %v", msgs[0].Recipients)
	}
	if !strings.Contains(msgs[0].Data, "comp_v003.mov has been transferred.") {
		t.Fatalf("unexpected message:\n%s", msgs[0].Data)
	}

	records, err := f.ledger.List(context.Background(), ledger.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	kinds := map[string]ledger.Status{}
	for _, rec := range records {
		kinds[rec.Kind] = rec.Status
	}
	if kinds[transfer.JobKindCopy] != ledger.StatusSucceeded || kinds[transfer.JobKindNotify] != ledger.StatusSucceeded {
		t.Fatalf("unexpected ledger records %+v", records)
	}
}

func TestNoticeSkippedWithoutEditors(t *testing.T) {
	f := newFixture(t)
	project := f.fake.Projects[f.shot.ProjectID]
	project.CustomAttributes["ae_name"] = "None"
	f.outDir(t, "a.mov")
	f.launch(t, nil)
	f.launch(t, map[string]any{transfer.FieldTransferFile: "a.mov"})
	f.drain(t)

	if len(f.smtp.Messages()) != 0 {
		t.Fatal("expected no mail")
	}
	if _, err := os.Stat(filepath.Join(f.destDir(), "a.mov")); err != nil {
		t.Fatalf("expected copy to happen anyway: %v", err)
	}
}

func TestMailFailureIsRecordedWithoutBlockingCopy(t *testing.T) {
	f := newFixture(t)
	f.cfg.Mail.Port = 1
	f.action = transfer.New(f.cfg, f.fake, f.store, f.runner, notifications.NewService(f.cfg), logging.NewNop())
	f.outDir(t, "a.mov")
	f.launch(t, nil)
	f.launch(t, map[string]any{transfer.FieldTransferFile: "a.mov"})
	f.drain(t)

	if _, err := os.Stat(filepath.Join(f.destDir(), "a.mov")); err != nil {
		t.Fatalf("expected copy: %v", err)
	}
	failed, err := f.ledger.List(context.Background(), ledger.ListOptions{Status: ledger.StatusFailed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(failed) != 1 || failed[0].Kind != transfer.JobKindNotify || failed[0].ErrorKind != "external" {
		t.Fatalf("expected failed notify job, got %+v", failed)
	}
}

func TestPhaseTwoEdgeCases(t *testing.T) {
	t.Run("none selected", func(t *testing.T) {
		f := newFixture(t)
		f.outDir(t, "a.mov")
		f.launch(t, nil)
		got := labelValues(t, f.launch(t, map[string]any{transfer.FieldTransferFile: ""}))
		if got[1] != "File: None selected." {
			t.Fatalf("unexpected labels %v", got)
		}
		if len(f.fake.StatusWrites()) != 0 {
			t.Fatal("expected no status change")
		}
	})
	t.Run("expired session", func(t *testing.T) {
		f := newFixture(t)
		got := labelValues(t, f.launch(t, map[string]any{transfer.FieldTransferFile: "a.mov"}))
		if !reflect.DeepEqual(got, []string{actions.MessageSessionExpired}) {
			t.Fatalf("unexpected labels %v", got)
		}
	})
	t.Run("host failure", func(t *testing.T) {
		f := newFixture(t)
		f.fake.SetError("TaskManagers", errors.New("down"))
		ev := testsupport.LaunchEvent(transfer.Identifier, nil, testsupport.Selected{ID: f.shot.TaskID, Type: "task"})
		if _, err := f.action.Launch(context.Background(), actions.NewRequest(transfer.Identifier, ev)); err == nil {
			t.Fatal("expected manager lookup failure")
		}
	})
}

func TestParseEditors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cases := []struct {
		name     string
		attrs    map[string]string
		want     []notifications.Recipient
		mismatch bool
	}{
		{"single", map[string]string{"ae_name": "Ann", "ae_address": "ann@x"}, []notifications.Recipient{{Name: "Ann", Email: "ann@x"}}, false},
		{"pairs", map[string]string{"ae_name": "Ann, Ben", "ae_address": "ann@x,ben@x"}, []notifications.Recipient{{Name: "Ann", Email: "ann@x"}, {Name: "Ben", Email: "ben@x"}}, false},
		{"none", map[string]string{"ae_name": "None", "ae_address": "None"}, nil, false},
		{"missing", map[string]string{}, nil, false},
		{"mismatch", map[string]string{"ae_name": "Ann, Ben", "ae_address": "ann@x"}, []notifications.Recipient{{Name: "Ann", Email: "ann@x"}, {Name: "Ben"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			got := transfer.ParseEditors(host.Project{Name: "jelly", CustomAttributes: tc.attrs}, logger)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
			if logged := strings.Contains(buf.String(), "editor_list_mismatch"); logged != tc.mismatch {
				t.Fatalf("expected mismatch logged=%v, log=%s", tc.mismatch, buf.String())
			}
		})
	}
}
