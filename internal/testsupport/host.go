package testsupport

import (
	"context"
	"fmt"
	"sync"

	"shothook/internal/host"
	"shothook/internal/services"
)

// StatusWrite records one SetTaskStatus call.
type StatusWrite struct {
	TaskID   string
	StatusID string
}

// FakeHost is an in-memory host.Client. Populate the exported maps before use;
// the recorded slices are safe to read through the accessor methods while
// background jobs run.
type FakeHost struct {
	Tasks      map[string]host.Task
	Ancestors  map[string][]host.Link
	Assignees  map[string][]host.User
	Managers   map[string][]host.User
	Projects   map[string]host.Project
	Workflows  map[string][]host.Status
	Catalog    []host.Status
	Versions   map[string]host.AssetVersion
	Components map[string][]host.Component

	// Errors forces a method, keyed by its name, to fail.
	Errors map[string]error
	// AssetErrors forces EnsureAsset to fail for a parent id.
	AssetErrors map[string]error

	mu           sync.Mutex
	nextID       int
	statusWrites []StatusWrite
	assets       []host.Asset
	reviewables  []string
	components   []host.Component
	published    []string
}

var _ host.Client = (*FakeHost)(nil)

// NewFakeHost returns an empty fake.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		Tasks:       map[string]host.Task{},
		Ancestors:   map[string][]host.Link{},
		Assignees:   map[string][]host.User{},
		Managers:    map[string][]host.User{},
		Projects:    map[string]host.Project{},
		Workflows:   map[string][]host.Status{},
		Versions:    map[string]host.AssetVersion{},
		Components:  map[string][]host.Component{},
		Errors:      map[string]error{},
		AssetErrors: map[string]error{},
	}
}

func (f *FakeHost) fail(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Errors[method]
}

func (f *FakeHost) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func notFound(kind, id string) error {
	return services.Wrap(services.ErrNotFound, "fakehost", kind, id, nil)
}

func (f *FakeHost) Task(_ context.Context, id string) (host.Task, error) {
	if err := f.fail("Task"); err != nil {
		return host.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.Tasks[id]
	if !ok {
		return host.Task{}, notFound("task", id)
	}
	return task, nil
}

func (f *FakeHost) TaskAncestors(_ context.Context, taskID string) ([]host.Link, error) {
	if err := f.fail("TaskAncestors"); err != nil {
		return nil, err
	}
	return append([]host.Link(nil), f.Ancestors[taskID]...), nil
}

func (f *FakeHost) TaskAssignees(_ context.Context, taskID string) ([]host.User, error) {
	if err := f.fail("TaskAssignees"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.User(nil), f.Assignees[taskID]...), nil
}

func (f *FakeHost) TaskManagers(_ context.Context, taskID string) ([]host.User, error) {
	if err := f.fail("TaskManagers"); err != nil {
		return nil, err
	}
	return append([]host.User(nil), f.Managers[taskID]...), nil
}

func (f *FakeHost) SetTaskStatus(_ context.Context, taskID, statusID string) error {
	if err := f.fail("SetTaskStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.Tasks[taskID]
	if !ok {
		return notFound("task", taskID)
	}
	task.StatusID = statusID
	f.Tasks[taskID] = task
	f.statusWrites = append(f.statusWrites, StatusWrite{TaskID: taskID, StatusID: statusID})
	return nil
}

func (f *FakeHost) Project(_ context.Context, id string) (host.Project, error) {
	if err := f.fail("Project"); err != nil {
		return host.Project{}, err
	}
	project, ok := f.Projects[id]
	if !ok {
		return host.Project{}, notFound("project", id)
	}
	return project, nil
}

func (f *FakeHost) ProjectTaskStatuses(_ context.Context, projectID string) ([]host.Status, error) {
	if err := f.fail("ProjectTaskStatuses"); err != nil {
		return nil, err
	}
	statuses, ok := f.Workflows[projectID]
	if !ok {
		return nil, notFound("workflow", projectID)
	}
	return append([]host.Status(nil), statuses...), nil
}

func (f *FakeHost) Statuses(context.Context) ([]host.Status, error) {
	if err := f.fail("Statuses"); err != nil {
		return nil, err
	}
	return append([]host.Status(nil), f.Catalog...), nil
}

func (f *FakeHost) AssetVersion(_ context.Context, id string) (host.AssetVersion, error) {
	if err := f.fail("AssetVersion"); err != nil {
		return host.AssetVersion{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	version, ok := f.Versions[id]
	if !ok {
		return host.AssetVersion{}, notFound("asset version", id)
	}
	return version, nil
}

func (f *FakeHost) VersionComponents(_ context.Context, versionID string) ([]host.Component, error) {
	if err := f.fail("VersionComponents"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.Component(nil), f.Components[versionID]...), nil
}

func (f *FakeHost) EnsureAsset(_ context.Context, parentID, name, typeShort string) (host.Asset, error) {
	if err := f.fail("EnsureAsset"); err != nil {
		return host.Asset{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.AssetErrors[parentID]; err != nil {
		return host.Asset{}, err
	}
	for _, asset := range f.assets {
		if asset.ParentID == parentID && asset.Name == name {
			return asset, nil
		}
	}
	asset := host.Asset{ID: f.id("asset"), Name: name, ParentID: parentID, TypeID: typeShort}
	f.assets = append(f.assets, asset)
	return asset, nil
}

func (f *FakeHost) CreateAssetVersion(_ context.Context, assetID, taskID string) (host.AssetVersion, error) {
	if err := f.fail("CreateAssetVersion"); err != nil {
		return host.AssetVersion{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	version := host.AssetVersion{ID: f.id("version"), Version: 1, AssetID: assetID, TaskID: taskID}
	for _, existing := range f.Versions {
		if existing.AssetID == assetID && existing.Version >= version.Version {
			version.Version = existing.Version + 1
		}
	}
	f.Versions[version.ID] = version
	return version, nil
}

func (f *FakeHost) MakeReviewable(_ context.Context, versionID, path string) error {
	if err := f.fail("MakeReviewable"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewables = append(f.reviewables, versionID+"="+path)
	return nil
}

func (f *FakeHost) CreateComponent(_ context.Context, versionID, name, path string) (host.Component, error) {
	if err := f.fail("CreateComponent"); err != nil {
		return host.Component{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	comp := host.Component{ID: f.id("component"), Name: name, VersionID: versionID, FilesystemPath: path}
	f.components = append(f.components, comp)
	f.Components[versionID] = append(f.Components[versionID], comp)
	return comp, nil
}

func (f *FakeHost) PublishVersion(_ context.Context, versionID string) error {
	if err := f.fail("PublishVersion"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, versionID)
	if version, ok := f.Versions[versionID]; ok {
		version.Published = true
		f.Versions[versionID] = version
	}
	return nil
}

func (f *FakeHost) Ping(context.Context) error {
	return f.fail("Ping")
}

// StatusWrites returns every SetTaskStatus call in order.
func (f *FakeHost) StatusWrites() []StatusWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StatusWrite(nil), f.statusWrites...)
}

// Assets returns assets created through EnsureAsset.
func (f *FakeHost) Assets() []host.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.Asset(nil), f.assets...)
}

// Reviewables returns "versionID=path" for every MakeReviewable call.
func (f *FakeHost) Reviewables() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reviewables...)
}

// CreatedComponents returns components created through CreateComponent.
func (f *FakeHost) CreatedComponents() []host.Component {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.Component(nil), f.components...)
}

// Published returns published version ids.
func (f *FakeHost) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

// SetError makes method fail with err; a nil err clears it.
func (f *FakeHost) SetError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errors, method)
		return
	}
	f.Errors[method] = err
}

// Shot is the fixture created by SeedShot.
type Shot struct {
	ProjectID string
	EpisodeID string
	ActID     string
	ShotID    string
	TaskID    string
}

// Workflow status ids seeded by SeedShot, in workflow order.
var SeedWorkflow = []host.Status{
	{ID: "st-not-started", Name: "Not started", Sort: 0},
	{ID: "st-assigned", Name: "Assigned", Sort: 1},
	{ID: "st-in-progress", Name: "In progress", Sort: 2},
	{ID: "st-for-review", Name: "For review", Sort: 3},
	{ID: "st-delivered", Name: "Delivered", Sort: 4},
	{ID: "st-approved", Name: "Approved", Sort: 5},
}

// SeedCatalog is the global status list installed by SeedStatusCatalog.
var SeedCatalog = []host.Status{
	{ID: "st-not-started", Name: "Not started"},
	{ID: "st-assigned", Name: "Assigned"},
	{ID: "st-for-review", Name: "For review"},
	{ID: "st-on-hold", Name: "On hold"},
	{ID: "st-omitted", Name: "Omitted"},
	{ID: "st-approved", Name: "Approved"},
}

// SeedStatusCatalog installs SeedCatalog as the host status list.
func (f *FakeHost) SeedStatusCatalog() {
	f.Catalog = append([]host.Status(nil), SeedCatalog...)
}

// SeedShot creates the project "jelly" (shorthand JB) with episode 102, act 2,
// shot 010 and a task named taskName under the shot.
func (f *FakeHost) SeedShot(taskName string) Shot {
	s := Shot{ProjectID: "proj-1", EpisodeID: "ep-102", ActID: "act-2", ShotID: "shot-010", TaskID: "task-" + taskName}
	f.Projects[s.ProjectID] = host.Project{
		ID:   s.ProjectID,
		Name: "jelly",
		CustomAttributes: map[string]string{
			"proj":       "JB",
			"ae_name":    "Ann Editor, Ben Editor",
			"ae_address": "ann@example.com, ben@example.com",
		},
	}
	f.Workflows[s.ProjectID] = append([]host.Status(nil), SeedWorkflow...)
	f.Tasks[s.TaskID] = host.Task{
		ID:         s.TaskID,
		Name:       taskName,
		ObjectType: host.ObjectTypeTask,
		StatusID:   SeedWorkflow[0].ID,
		ProjectID:  s.ProjectID,
		ParentID:   s.ShotID,
	}
	f.Ancestors[s.TaskID] = []host.Link{
		{ID: s.EpisodeID, Name: "102", ObjectType: host.ObjectTypeEpisode},
		{ID: s.ActID, Name: "2", ObjectType: host.ObjectTypeAct},
		{ID: s.ShotID, Name: "010", ObjectType: host.ObjectTypeShot},
		{ID: s.ProjectID, Name: "jelly", ObjectType: host.ObjectTypeProject},
	}
	f.Assignees[s.TaskID] = []host.User{{ID: "u-1", Username: "cara", FirstName: "Cara", LastName: "Artist", Email: "cara@example.com"}}
	f.Managers[s.TaskID] = []host.User{{ID: "u-2", Username: "sam", FirstName: "Sam", LastName: "Super", Email: "sam@example.com"}}
	return s
}
