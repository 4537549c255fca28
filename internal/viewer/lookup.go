package viewer

import (
	"context"
	"errors"
	"fmt"

	"shothook/internal/host"
	"shothook/internal/services"
)

// LookupKind classifies a component lookup.
type LookupKind int

const (
	Found LookupKind = iota
	NotFound
	LookupFailed
)

func (k LookupKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "lookup_failed"
	}
}

// ComponentLookup is the result of searching a version for its server link.
type ComponentLookup struct {
	Kind      LookupKind
	Component host.Component
	Reason    error
}

// VersionReader is the host surface needed to find a version's files.
type VersionReader interface {
	AssetVersion(ctx context.Context, id string) (host.AssetVersion, error)
	VersionComponents(ctx context.Context, versionID string) ([]host.Component, error)
}

// LookupServerLink returns the server link of an image sequence version. The
// second result is false when the version is not an image sequence and no
// file should be opened.
func LookupServerLink(ctx context.Context, client VersionReader, versionID string) (ComponentLookup, bool) {
	version, err := client.AssetVersion(ctx, versionID)
	if err != nil {
		return failed("load asset version", err), true
	}
	if !version.IsImageSequence() {
		return ComponentLookup{Kind: NotFound}, false
	}
	components, err := client.VersionComponents(ctx, versionID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return ComponentLookup{Kind: NotFound}, true
		}
		return failed("list components", err), true
	}
	for _, c := range components {
		if c.Name == host.ServerLinkComponent {
			return ComponentLookup{Kind: Found, Component: c}, true
		}
	}
	return ComponentLookup{Kind: NotFound}, true
}

func failed(op string, err error) ComponentLookup {
	return ComponentLookup{Kind: LookupFailed, Reason: fmt.Errorf("%s: %w", op, err)}
}
