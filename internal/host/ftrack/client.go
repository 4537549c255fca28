package ftrack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"shothook/internal/host"
	"shothook/internal/services"
)

var _ host.Client = (*Client)(nil)

func newEntityID() string {
	return uuid.NewString()
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type taskRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StatusID   string `json:"status_id"`
	ProjectID  string `json:"project_id"`
	ParentID   string `json:"parent_id"`
	TypeID     string `json:"type_id"`
	ObjectType named  `json:"object_type"`
}

type linkRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ObjectType named  `json:"object_type"`
}

type userRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u userRecord) toUser() host.User {
	return host.User{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type statusRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sort int    `json:"sort"`
}

// Task fetches a task by id.
func (c *Client) Task(ctx context.Context, id string) (host.Task, error) {
	var rows []taskRecord
	expr := fmt.Sprintf("select id, name, status_id, project_id, parent_id, type_id, object_type.name from TypedContext where id is %s", quote(id))
	if err := c.query(ctx, expr, &rows); err != nil {
		return host.Task{}, err
	}
	if len(rows) == 0 {
		return host.Task{}, services.Wrap(services.ErrNotFound, component, "task", id, nil)
	}
	r := rows[0]
	return host.Task{
		ID:         r.ID,
		Name:       r.Name,
		ObjectType: r.ObjectType.Name,
		StatusID:   r.StatusID,
		ProjectID:  r.ProjectID,
		ParentID:   r.ParentID,
		TypeID:     r.TypeID,
	}, nil
}

// TaskAncestors returns every parent context of the task with the project
// appended last.
func (c *Client) TaskAncestors(ctx context.Context, taskID string) ([]host.Link, error) {
	var rows []struct {
		Ancestors []linkRecord `json:"ancestors"`
		Project   named        `json:"project"`
	}
	expr := fmt.Sprintf("select ancestors.id, ancestors.name, ancestors.object_type.name, project.id, project.name from TypedContext where id is %s", quote(taskID))
	if err := c.query(ctx, expr, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, services.Wrap(services.ErrNotFound, component, "task ancestors", taskID, nil)
	}
	links := make([]host.Link, 0, len(rows[0].Ancestors)+1)
	for _, a := range rows[0].Ancestors {
		links = append(links, host.Link{ID: a.ID, Name: a.Name, ObjectType: a.ObjectType.Name})
	}
	if rows[0].Project.ID != "" {
		links = append(links, host.Link{ID: rows[0].Project.ID, Name: rows[0].Project.Name, ObjectType: host.ObjectTypeProject})
	}
	return links, nil
}

// TaskAssignees returns the users assigned to the task.
func (c *Client) TaskAssignees(ctx context.Context, taskID string) ([]host.User, error) {
	var rows []struct {
		Resource userRecord `json:"resource"`
	}
	expr := fmt.Sprintf("select resource.id, resource.username, resource.first_name, resource.last_name, resource.email from Appointment where context_id is %s and type is \"assignment\"", quote(taskID))
	if err := c.query(ctx, expr, &rows); err != nil {
		return nil, err
	}
	users := make([]host.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.Resource.toUser())
	}
	return users, nil
}

// TaskManagers returns the supervisors attached to the task.
func (c *Client) TaskManagers(ctx context.Context, taskID string) ([]host.User, error) {
	var rows []struct {
		User userRecord `json:"user"`
	}
	expr := fmt.Sprintf("select user.id, user.username, user.first_name, user.last_name, user.email from Manager where context_id is %s", quote(taskID))
	if err := c.query(ctx, expr, &rows); err != nil {
		return nil, err
	}
	users := make([]host.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.User.toUser())
	}
	return users, nil
}

// SetTaskStatus points the task at statusID.
func (c *Client) SetTaskStatus(ctx context.Context, taskID, statusID string) error {
	return c.update(ctx, "Task", taskID, map[string]any{"status_id": statusID})
}

// Project fetches a project with its custom attributes.
func (c *Client) Project(ctx context.Context, id string) (host.Project, error) {
	var rows []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	}
	expr := fmt.Sprintf("select id, name, full_name from Project where id is %s", quote(id))
	if err := c.query(ctx, expr, &rows); err != nil {
		return host.Project{}, err
	}
	if len(rows) == 0 {
		return host.Project{}, services.Wrap(services.ErrNotFound, component, "project", id, nil)
	}
	var attrs []struct {
		Value         any `json:"value"`
		Configuration struct {
			Key string `json:"key"`
		} `json:"configuration"`
	}
	expr = fmt.Sprintf("select value, configuration.key from ContextCustomAttributeValue where entity_id is %s", quote(id))
	if err := c.query(ctx, expr, &attrs); err != nil {
		return host.Project{}, err
	}
	custom := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		if attr.Configuration.Key == "" || attr.Value == nil {
			continue
		}
		custom[attr.Configuration.Key] = fmt.Sprint(attr.Value)
	}
	return host.Project{ID: rows[0].ID, Name: rows[0].Name, FullName: rows[0].FullName, CustomAttributes: custom}, nil
}

// ProjectTaskStatuses returns the task workflow of the project's schema in
// workflow order.
func (c *Client) ProjectTaskStatuses(ctx context.Context, projectID string) ([]host.Status, error) {
	var projects []struct {
		SchemaID string `json:"project_schema_id"`
	}
	expr := fmt.Sprintf("select project_schema_id from Project where id is %s", quote(projectID))
	if err := c.query(ctx, expr, &projects); err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].SchemaID == "" {
		return nil, services.Wrap(services.ErrNotFound, component, "project schema", projectID, nil)
	}
	var schemas []struct {
		Workflow struct {
			Statuses []statusRecord `json:"statuses"`
		} `json:"_task_workflow"`
	}
	expr = fmt.Sprintf("select _task_workflow.statuses.id, _task_workflow.statuses.name, _task_workflow.statuses.sort from ProjectSchema where id is %s", quote(projects[0].SchemaID))
	if err := c.query(ctx, expr, &schemas); err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, services.Wrap(services.ErrNotFound, component, "task workflow", projects[0].SchemaID, nil)
	}
	return toStatuses(schemas[0].Workflow.Statuses), nil
}

// Statuses lists the global status catalog.
func (c *Client) Statuses(ctx context.Context) ([]host.Status, error) {
	var rows []statusRecord
	if err := c.query(ctx, "select id, name, sort from Status", &rows); err != nil {
		return nil, err
	}
	return toStatuses(rows), nil
}

func toStatuses(rows []statusRecord) []host.Status {
	out := make([]host.Status, 0, len(rows))
	for _, r := range rows {
		out = append(out, host.Status{ID: r.ID, Name: r.Name, Sort: r.Sort})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sort < out[j].Sort })
	return out
}

type versionRecord struct {
	ID        string `json:"id"`
	Version   int    `json:"version"`
	AssetID   string `json:"asset_id"`
	TaskID    string `json:"task_id"`
	IsPublish bool   `json:"is_published"`
	Asset     struct {
		Name string `json:"name"`
		Type struct {
			Short string `json:"short"`
		} `json:"type"`
	} `json:"asset"`
}

// AssetVersion fetches a version with its asset name and type.
func (c *Client) AssetVersion(ctx context.Context, id string) (host.AssetVersion, error) {
	var rows []versionRecord
	expr := fmt.Sprintf("select id, version, asset_id, task_id, is_published, asset.name, asset.type.short from AssetVersion where id is %s", quote(id))
	if err := c.query(ctx, expr, &rows); err != nil {
		return host.AssetVersion{}, err
	}
	if len(rows) == 0 {
		return host.AssetVersion{}, services.Wrap(services.ErrNotFound, component, "asset version", id, nil)
	}
	r := rows[0]
	return host.AssetVersion{
		ID:             r.ID,
		Version:        r.Version,
		AssetID:        r.AssetID,
		AssetName:      r.Asset.Name,
		AssetTypeShort: r.Asset.Type.Short,
		TaskID:         r.TaskID,
		Published:      r.IsPublish,
	}, nil
}

// VersionComponents lists the components of a version, resolving the
// unmanaged location path when one is registered.
func (c *Client) VersionComponents(ctx context.Context, versionID string) ([]host.Component, error) {
	var rows []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		VersionID string `json:"version_id"`
		Locations []struct {
			LocationID         string `json:"location_id"`
			ResourceIdentifier string `json:"resource_identifier"`
		} `json:"component_locations"`
	}
	expr := fmt.Sprintf("select id, name, version_id, component_locations.location_id, component_locations.resource_identifier from Component where version_id is %s", quote(versionID))
	if err := c.query(ctx, expr, &rows); err != nil {
		return nil, err
	}
	out := make([]host.Component, 0, len(rows))
	for _, r := range rows {
		comp := host.Component{ID: r.ID, Name: r.Name, VersionID: r.VersionID}
		for _, loc := range r.Locations {
			if loc.LocationID == UnmanagedLocationID && loc.ResourceIdentifier != "" {
				comp.FilesystemPath = loc.ResourceIdentifier
				break
			}
			if comp.FilesystemPath == "" {
				comp.FilesystemPath = loc.ResourceIdentifier
			}
		}
		out = append(out, comp)
	}
	return out, nil
}

// EnsureAsset returns the asset with name and type under parentID, creating it
// when absent.
func (c *Client) EnsureAsset(ctx context.Context, parentID, name, typeShort string) (host.Asset, error) {
	var types []named
	if err := c.query(ctx, fmt.Sprintf("select id, name from AssetType where short is %s", quote(typeShort)), &types); err != nil {
		return host.Asset{}, err
	}
	if len(types) == 0 {
		return host.Asset{}, services.Wrap(services.ErrNotFound, component, "asset type", typeShort, nil)
	}
	typeID := types[0].ID

	var existing []named
	expr := fmt.Sprintf("select id, name from Asset where context_id is %s and name is %s and type_id is %s", quote(parentID), quote(name), quote(typeID))
	if err := c.query(ctx, expr, &existing); err != nil {
		return host.Asset{}, err
	}
	if len(existing) > 0 {
		return host.Asset{ID: existing[0].ID, Name: existing[0].Name, ParentID: parentID, TypeID: typeID}, nil
	}

	var created named
	data := map[string]any{"name": name, "context_id": parentID, "type_id": typeID}
	if err := c.create(ctx, "Asset", data, &created); err != nil {
		return host.Asset{}, err
	}
	if created.ID == "" {
		created.ID = fmt.Sprint(data["id"])
	}
	return host.Asset{ID: created.ID, Name: name, ParentID: parentID, TypeID: typeID}, nil
}

// CreateAssetVersion adds a new version of assetID linked to taskID.
func (c *Client) CreateAssetVersion(ctx context.Context, assetID, taskID string) (host.AssetVersion, error) {
	data := map[string]any{"asset_id": assetID, "task_id": taskID}
	var created struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	if err := c.create(ctx, "AssetVersion", data, &created); err != nil {
		return host.AssetVersion{}, err
	}
	if created.ID == "" {
		created.ID = fmt.Sprint(data["id"])
	}
	return host.AssetVersion{ID: created.ID, Version: created.Version, AssetID: assetID, TaskID: taskID}, nil
}

// CreateComponent registers path on the version in the unmanaged location.
func (c *Client) CreateComponent(ctx context.Context, versionID, name, path string) (host.Component, error) {
	data := map[string]any{"name": name, "version_id": versionID, "file_type": fileExtension(path)}
	if err := c.create(ctx, "FileComponent", data, nil); err != nil {
		return host.Component{}, err
	}
	componentID := fmt.Sprint(data["id"])
	locData := map[string]any{
		"component_id":        componentID,
		"location_id":         UnmanagedLocationID,
		"resource_identifier": path,
	}
	if err := c.create(ctx, "ComponentLocation", locData, nil); err != nil {
		return host.Component{}, err
	}
	return host.Component{ID: componentID, Name: name, VersionID: versionID, FilesystemPath: path}, nil
}

// PublishVersion flags the version as published.
func (c *Client) PublishVersion(ctx context.Context, versionID string) error {
	return c.update(ctx, "AssetVersion", versionID, map[string]any{"is_published": true})
}

// Ping issues a cheap query to validate credentials.
func (c *Client) Ping(ctx context.Context) error {
	var rows []named
	expr := fmt.Sprintf("select id, username from User where username is %s", quote(c.apiUser))
	if err := c.query(ctx, expr, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return services.Wrap(services.ErrConfiguration, component, "ping", "api user not found", nil)
	}
	return nil
}

func fileExtension(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		return base[idx:]
	}
	return ""
}
