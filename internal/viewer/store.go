package viewer

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"shothook/internal/logging"
)

// BinaryIdentifier prefixes the identifier of every discovered installation.
const BinaryIdentifier = "djv_view"

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Application is one discovered viewer installation.
type Application struct {
	Identifier  string `json:"identifier"`
	Label       string `json:"label"`
	Variant     string `json:"variant,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Path        string `json:"path"`
}

// DefaultGlobs returns the installation search patterns for goos.
func DefaultGlobs(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"/Applications/DJVViewer*/djv_view.app"}
	case "windows":
		return []string{`C:\Program Files*\djv-*\bin\djv_view.exe`}
	default:
		return []string{"/opt/djv*/bin/djv_view", "/usr/local/djv*/bin/djv_view"}
	}
}

// Store holds the installations found at startup.
type Store struct {
	apps []Application
}

// NewStore wraps a fixed application list.
func NewStore(apps ...Application) *Store {
	s := &Store{apps: append([]Application(nil), apps...)}
	sort.SliceStable(s.apps, func(i, j int) bool { return s.apps[i].Label < s.apps[j].Label })
	return s
}

// Discover searches globs, falling back to the platform defaults when globs is
// empty. Only the first match of each glob is used.
func Discover(globs []string, label string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(globs) == 0 {
		globs = DefaultGlobs(runtime.GOOS)
	}
	seen := map[string]struct{}{}
	var apps []Application
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			logger.Warn("invalid viewer search pattern",
				logging.String("pattern", pattern),
				logging.Error(err),
				logging.String(logging.FieldEventType, "viewer_glob_invalid"),
				logging.String(logging.FieldErrorHint, "fix viewer.globs in config.toml"),
			)
			continue
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		app := newApplication(matches[0], label)
		if _, dup := seen[app.Identifier]; dup {
			continue
		}
		seen[app.Identifier] = struct{}{}
		apps = append(apps, app)
	}
	logger.Debug("discovered viewers", logging.Int("count", len(apps)))
	return NewStore(apps...)
}

func newApplication(path, label string) Application {
	app := Application{
		Identifier: BinaryIdentifier,
		Label:      label,
		Icon:       "default",
		Path:       path,
	}
	if version := versionPattern.FindString(path); version != "" {
		app.Variant = version
		app.Identifier = BinaryIdentifier + "_" + version
	}
	return app
}

// Applications returns the installations sorted by label.
func (s *Store) Applications() []Application {
	if s == nil {
		return nil
	}
	return append([]Application(nil), s.apps...)
}

// Get finds an installation by identifier.
func (s *Store) Get(identifier string) (Application, bool) {
	if s == nil {
		return Application{}, false
	}
	identifier = strings.TrimSpace(identifier)
	for _, app := range s.apps {
		if app.Identifier == identifier {
			return app, true
		}
	}
	return Application{}, false
}
