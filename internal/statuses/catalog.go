package statuses

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shothook/internal/host"
	"shothook/internal/services"
)

// Name identifies a task status independent of the host's ids.
type Name string

// Known status names.
const (
	NotStarted Name = "NOT_STARTED"
	Assigned   Name = "ASSIGNED"
	ForReview  Name = "FOR_REVIEW"
	OnHold     Name = "ON_HOLD"
	Omitted    Name = "OMITTED"
	Approved   Name = "APPROVED"
	Output     Name = "OUTPUT"
)

// Required names must resolve for the status synchronizer to run.
var Required = []Name{NotStarted, Assigned, ForReview, OnHold, Omitted}

// All lists every known name in lifecycle order.
var All = []Name{NotStarted, Assigned, ForReview, OnHold, Omitted, Approved, Output}

// Lister is the slice of the host client needed to build a catalog.
type Lister interface {
	Statuses(ctx context.Context) ([]host.Status, error)
}

// Entry is one resolved name.
type Entry struct {
	Name   Name
	Status host.Status
	// Source is "config" when the id came from configuration, "catalog" when
	// matched by name.
	Source string
}

// Catalog maps status names to host status ids.
type Catalog struct {
	byName map[Name]Entry
	byID   map[string]Name
}

var folder = cases.Fold()

// Resolve builds a catalog from the host's status list. Configured ids take
// precedence; remaining names are matched against host status names after
// case folding with spaces and dashes treated as underscores.
func Resolve(ctx context.Context, lister Lister, configured map[string]string) (*Catalog, error) {
	statuses, err := lister.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	hostByID := make(map[string]host.Status, len(statuses))
	hostByName := make(map[string]host.Status, len(statuses))
	for _, st := range statuses {
		hostByID[st.ID] = st
		key := foldName(st.Name)
		if _, exists := hostByName[key]; !exists {
			hostByName[key] = st
		}
	}

	cat := &Catalog{byName: make(map[Name]Entry), byID: make(map[string]Name)}
	for _, name := range All {
		if id := strings.TrimSpace(configured[string(name)]); id != "" {
			st, ok := hostByID[id]
			if !ok {
				st = host.Status{ID: id, Name: displayName(name)}
			}
			cat.add(Entry{Name: name, Status: st, Source: "config"})
			continue
		}
		if st, ok := hostByName[foldName(string(name))]; ok {
			cat.add(Entry{Name: name, Status: st, Source: "catalog"})
		}
	}

	var missing []string
	for _, name := range Required {
		if _, ok := cat.byName[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	if len(missing) > 0 {
		return cat, services.Wrap(services.ErrConfiguration, "statuses", "resolve",
			"unresolved statuses: "+strings.Join(missing, ", "), nil)
	}
	return cat, nil
}

// New builds a catalog directly from name to id pairs.
func New(ids map[Name]string) *Catalog {
	cat := &Catalog{byName: make(map[Name]Entry), byID: make(map[string]Name)}
	for name, id := range ids {
		cat.add(Entry{Name: name, Status: host.Status{ID: id, Name: displayName(name)}, Source: "config"})
	}
	return cat
}

func (c *Catalog) add(entry Entry) {
	c.byName[entry.Name] = entry
	c.byID[entry.Status.ID] = entry.Name
}

// ID returns the host id for name.
func (c *Catalog) ID(name Name) (string, bool) {
	if c == nil {
		return "", false
	}
	entry, ok := c.byName[name]
	return entry.Status.ID, ok
}

// Lookup returns the name a host status id resolves to.
func (c *Catalog) Lookup(statusID string) (Name, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.byID[statusID]
	return name, ok
}

// Is reports whether statusID is the resolved id for name.
func (c *Catalog) Is(statusID string, name Name) bool {
	id, ok := c.ID(name)
	return ok && id == statusID
}

// Entries returns resolved entries in lifecycle order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, len(c.byName))
	for _, entry := range c.byName {
		out = append(out, entry)
	}
	order := make(map[Name]int, len(All))
	for i, name := range All {
		order[name] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Name] < order[out[j].Name] })
	return out
}

func foldName(value string) string {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer(" ", "_", "-", "_").Replace(value)
	return folder.String(value)
}

func displayName(name Name) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(strings.ToLower(string(name)), "_", " "))
}
