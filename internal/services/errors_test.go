package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"shothook/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "uploader", "create component", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"uploader", "create component", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "actions", "launch", "bad", nil), services.KindValidation},
		{services.Wrap(services.ErrNotFound, "host", "query", "missing", nil), services.KindNotFound},
		{services.Wrap(services.ErrExternal, "mail", "send", "smtp", errors.New("535")), services.KindExternal},
		{fmt.Errorf("job: %w", context.Canceled), services.KindCanceled},
		{context.DeadlineExceeded, services.KindTimeout},
		{errors.New("disk full"), services.KindTransient},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
