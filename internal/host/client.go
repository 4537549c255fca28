package host

import "context"

// Client is the host object API used by the handlers. Implementations return
// errors marked with services.ErrNotFound for unknown ids and
// services.ErrExternal for host-side failures.
type Client interface {
	Task(ctx context.Context, id string) (Task, error)
	// TaskAncestors returns the task's parents (project included) in no
	// guaranteed order.
	TaskAncestors(ctx context.Context, taskID string) ([]Link, error)
	TaskAssignees(ctx context.Context, taskID string) ([]User, error)
	TaskManagers(ctx context.Context, taskID string) ([]User, error)
	SetTaskStatus(ctx context.Context, taskID, statusID string) error

	Project(ctx context.Context, id string) (Project, error)
	// ProjectTaskStatuses returns the project's task workflow statuses in
	// workflow order.
	ProjectTaskStatuses(ctx context.Context, projectID string) ([]Status, error)
	Statuses(ctx context.Context) ([]Status, error)

	AssetVersion(ctx context.Context, id string) (AssetVersion, error)
	VersionComponents(ctx context.Context, versionID string) ([]Component, error)

	// EnsureAsset returns the asset with name and type under parentID,
	// creating it when absent.
	EnsureAsset(ctx context.Context, parentID, name, typeShort string) (Asset, error)
	CreateAssetVersion(ctx context.Context, assetID, taskID string) (AssetVersion, error)
	// MakeReviewable uploads path and asks the host to encode a web playable
	// rendition for the version.
	MakeReviewable(ctx context.Context, versionID, path string) error
	// CreateComponent registers path as an unmanaged component on the version.
	CreateComponent(ctx context.Context, versionID, name, path string) (Component, error)
	PublishVersion(ctx context.Context, versionID string) error

	// Ping verifies credentials and connectivity.
	Ping(ctx context.Context) error
}
