package shotpath

import (
	"path"
	"strings"
)

// Outcome is the result of probing one naming strategy.
type Outcome int

const (
	// OutcomeFound means the strategy's directory exists.
	OutcomeFound Outcome = iota
	// OutcomeMissing means the directory does not exist.
	OutcomeMissing
	// OutcomeIncomplete means the context lacks variables the layout needs.
	OutcomeIncomplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeMissing:
		return "missing"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Strategy is one folder naming convention.
type Strategy struct {
	Name string
	// Layout returns the slash separated path relative to the storage root.
	Layout func(c Context, outDir string) string
}

// Legacy places shots directly under the episode folder.
var Legacy = Strategy{
	Name: "legacy",
	Layout: func(c Context, outDir string) string {
		return dirPath(c.Show, c.Episode, "shots", c.ShotName(), outDir)
	},
}

// Episodes nests episodes under an "episodes" folder.
var Episodes = Strategy{
	Name: "episodes",
	Layout: func(c Context, outDir string) string {
		return dirPath(c.Show, "episodes", c.Episode, "shots", c.ShotName(), outDir)
	},
}

// DefaultStrategies is the lookup order for output folders.
var DefaultStrategies = []Strategy{Legacy, Episodes}

// EditorialDestination is the transfer folder of a shot's act,
// <show>/<episode>/vfx_for_editorial/<act>/.
func EditorialDestination(c Context) string {
	return dirPath(c.Show, c.Episode, "vfx_for_editorial", c.Act)
}

func dirPath(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/\\ "); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return path.Join(cleaned...) + "/"
}

// Candidate is the typed outcome of one strategy.
type Candidate struct {
	Strategy string
	Outcome  Outcome
	// Relative is the slash separated path under the root.
	Relative string
	// Path is the filesystem path from the disk accessor.
	Path string
}

// ResolutionKind classifies the combined outcome of all strategies.
type ResolutionKind int

const (
	// Selected means exactly one strategy found its directory.
	Selected ResolutionKind = iota
	// Missing means no strategy found a directory.
	Missing
	// Ambiguous means more than one strategy found a directory.
	Ambiguous
	// Incomplete means the context could not name any directory.
	Incomplete
)

// Resolution is the result of probing every strategy in order.
type Resolution struct {
	Kind       ResolutionKind
	Selected   Candidate
	Candidates []Candidate
}

// Resolve tries strategies in order against disk.
func Resolve(disk Disk, c Context, outDir string, strategies []Strategy) Resolution {
	var res Resolution
	if !c.Complete() {
		for _, s := range strategies {
			res.Candidates = append(res.Candidates, Candidate{Strategy: s.Name, Outcome: OutcomeIncomplete})
		}
		res.Kind = Incomplete
		return res
	}

	found := 0
	for _, s := range strategies {
		rel := s.Layout(c, outDir)
		cand := Candidate{Strategy: s.Name, Relative: rel, Path: disk.Path(rel), Outcome: OutcomeMissing}
		if disk.IsDir(rel) {
			cand.Outcome = OutcomeFound
			if found == 0 {
				res.Selected = cand
			}
			found++
		}
		res.Candidates = append(res.Candidates, cand)
	}
	switch found {
	case 0:
		res.Kind = Missing
	case 1:
		res.Kind = Selected
	default:
		res.Kind = Ambiguous
	}
	return res
}
