package shotpath

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Disk resolves slash separated project paths against a storage root.
type Disk interface {
	// Path returns the filesystem path for rel.
	Path(rel string) string
	IsDir(rel string) bool
	// List returns the sorted base names of entries in rel.
	List(rel string) ([]string, error)
}

// LocalDisk is a Disk on the local filesystem or a mounted share.
type LocalDisk struct {
	Root string
}

// NewLocalDisk returns a disk rooted at root.
func NewLocalDisk(root string) LocalDisk {
	return LocalDisk{Root: root}
}

func (d LocalDisk) Path(rel string) string {
	rel = strings.TrimLeft(rel, "/")
	if d.Root == "" {
		return filepath.FromSlash(rel)
	}
	joined := filepath.Join(d.Root, filepath.FromSlash(rel))
	if strings.HasSuffix(rel, "/") {
		joined += string(filepath.Separator)
	}
	return joined
}

func (d LocalDisk) IsDir(rel string) bool {
	info, err := os.Stat(d.Path(rel))
	return err == nil && info.IsDir()
}

func (d LocalDisk) List(rel string) ([]string, error) {
	entries, err := os.ReadDir(d.Path(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
