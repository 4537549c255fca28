package host

import (
	"strings"
)

// Object type names used in task ancestor chains.
const (
	ObjectTypeProject  = "Project"
	ObjectTypeEpisode  = "Episode"
	ObjectTypeAct      = "Act"
	ObjectTypeSequence = "Sequence"
	ObjectTypeShot     = "Shot"
	ObjectTypeTask     = "Task"
)

// AssetTypeImage is the short code of image sequence assets.
const AssetTypeImage = "img"

// ServerLinkComponent names the component that points at a version's source
// files on shared storage.
const ServerLinkComponent = "Server link"

// Task is a schedulable unit of work.
type Task struct {
	ID         string
	Name       string
	ObjectType string
	StatusID   string
	ProjectID  string
	ParentID   string
	TypeID     string
}

// Link is one entry in a task's ancestor chain.
type Link struct {
	ID         string
	Name       string
	ObjectType string
}

// Status is a task status from the host catalog.
type Status struct {
	ID   string
	Name string
	Sort int
}

// User is a host account.
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// DisplayName returns "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// Project is the root context of a show.
type Project struct {
	ID               string
	Name             string
	FullName         string
	CustomAttributes map[string]string
}

// Attribute returns a trimmed custom attribute value.
func (p Project) Attribute(key string) (string, bool) {
	if p.CustomAttributes == nil {
		return "", false
	}
	value, ok := p.CustomAttributes[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// Asset groups versions of one deliverable under a context.
type Asset struct {
	ID       string
	Name     string
	ParentID string
	TypeID   string
}

// AssetVersion is one published iteration of an asset.
type AssetVersion struct {
	ID             string
	Version        int
	AssetID        string
	AssetName      string
	AssetTypeShort string
	TaskID         string
	Published      bool
}

// IsImageSequence reports whether the owning asset is an image sequence.
func (v AssetVersion) IsImageSequence() bool {
	return strings.EqualFold(v.AssetTypeShort, AssetTypeImage)
}

// Component is a named file attachment on a version.
type Component struct {
	ID             string
	Name           string
	VersionID      string
	FilesystemPath string
}
