package shotpath

import (
	"strings"

	"shothook/internal/host"
)

// ShorthandAttribute is the project custom attribute holding the show
// shorthand used in shot folder names.
const ShorthandAttribute = "proj"

// Context holds the naming variables of a shot.
type Context struct {
	Show      string `json:"show"`
	Episode   string `json:"episode"`
	Act       string `json:"act"`
	Shot      string `json:"shot"`
	Shorthand string `json:"shorthand"`
}

// FromHierarchy fills a context from a task, its ancestors and its project.
// The task itself counts as the shot when its object type is Shot. Acts and
// sequences both fill the act slot.
func FromHierarchy(task host.Task, ancestors []host.Link, project host.Project) Context {
	var c Context
	links := ancestors
	if strings.EqualFold(task.ObjectType, host.ObjectTypeShot) {
		links = append([]host.Link{{ID: task.ID, Name: task.Name, ObjectType: task.ObjectType}}, ancestors...)
	}
	for _, link := range links {
		switch {
		case strings.EqualFold(link.ObjectType, host.ObjectTypeShot):
			c.Shot = link.Name
		case strings.EqualFold(link.ObjectType, host.ObjectTypeAct),
			strings.EqualFold(link.ObjectType, host.ObjectTypeSequence):
			c.Act = link.Name
		case strings.EqualFold(link.ObjectType, host.ObjectTypeEpisode):
			c.Episode = link.Name
		case strings.EqualFold(link.ObjectType, host.ObjectTypeProject):
			c.Show = link.Name
		}
	}
	if project.Name != "" {
		c.Show = project.Name
	}
	if short, ok := project.Attribute(ShorthandAttribute); ok {
		c.Shorthand = short
	}
	return c
}

// Missing lists the names of empty variables.
func (c Context) Missing() []string {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"show", c.Show},
		{"episode", c.Episode},
		{"act", c.Act},
		{"shot", c.Shot},
		{"shorthand", c.Shorthand},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Complete reports whether every variable is set.
func (c Context) Complete() bool {
	return len(c.Missing()) == 0
}

// ShotName is the shot folder name, <shorthand><episode>_<act>_<shot>.
func (c Context) ShotName() string {
	return c.Shorthand + c.Episode + "_" + c.Act + "_" + c.Shot
}
