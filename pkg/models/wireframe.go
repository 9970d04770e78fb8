package models

import (
	"maps"
	"slices"
	"time"
)

type Wireframe struct {
	ID          string            `json:"id" yaml:"id"`
	SessionID   string            `json:"sessionId" yaml:"sessionId"`
	Description string            `json:"description" yaml:"description"`
	Components  []Component       `json:"components" yaml:"components"`
	Metadata    WireframeMetadata `json:"metadata" yaml:"metadata"`
}

type WireframeMetadata struct {
	Width     int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int       `json:"height,omitempty" yaml:"height,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Component is a node in a wireframe layout. Children are owned by value, so
// a tree built from literals cannot contain cycles.
type Component struct {
	ID         string         `json:"id" yaml:"id"`
	Type       string         `json:"type" yaml:"type"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Position   *Position      `json:"position,omitempty" yaml:"position,omitempty"`
	Dimensions *Dimensions    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []Component    `json:"children,omitempty" yaml:"children,omitempty"`
}

// ComponentPatch describes a partial component update. Nil fields are left
// untouched; Properties entries are merged, a nil value deletes the key.
type ComponentPatch struct {
	Type       *string
	Label      *string
	Position   *Position
	Dimensions *Dimensions
	Properties map[string]any
}

func (p ComponentPatch) Apply(c *Component) {
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Label != nil {
		c.Label = *p.Label
	}
	if p.Position != nil {
		pos := *p.Position
		c.Position = &pos
	}
	if p.Dimensions != nil {
		dim := *p.Dimensions
		c.Dimensions = &dim
	}
	for k, v := range p.Properties {
		if v == nil {
			delete(c.Properties, k)
			continue
		}
		if c.Properties == nil {
			c.Properties = make(map[string]any)
		}
		c.Properties[k] = cloneValue(v)
	}
}

func (c Component) Clone() Component {
	out := c
	if c.Position != nil {
		pos := *c.Position
		out.Position = &pos
	}
	if c.Dimensions != nil {
		dim := *c.Dimensions
		out.Dimensions = &dim
	}
	out.Properties = cloneProperties(c.Properties)
	out.Children = CloneComponents(c.Children)
	return out
}

// CloneComponents deep-copies a component forest.
func CloneComponents(cs []Component) []Component {
	if cs == nil {
		return nil
	}
	out := make([]Component, len(cs))
	for i := range cs {
		out[i] = cs[i].Clone()
	}
	return out
}

// FindComponent returns a pointer into the forest for the component with the
// given id, searching depth-first.
func FindComponent(cs []Component, id string) *Component {
	for i := range cs {
		if cs[i].ID == id {
			return &cs[i]
		}
		if found := FindComponent(cs[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// RemoveComponent deletes the component with the given id and its subtree.
func RemoveComponent(cs []Component, id string) ([]Component, bool) {
	for i := range cs {
		if cs[i].ID == id {
			return slices.Delete(cs, i, i+1), true
		}
		if children, ok := RemoveComponent(cs[i].Children, id); ok {
			cs[i].Children = children
			return cs, true
		}
	}
	return cs, false
}

func CountComponents(cs []Component) int {
	n := len(cs)
	for _, c := range cs {
		n += CountComponents(c.Children)
	}
	return n
}

func (w *Wireframe) Clone() *Wireframe {
	if w == nil {
		return nil
	}
	out := *w
	out.Components = CloneComponents(w.Components)
	return &out
}

func cloneProperties(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container shapes produced by encoding/json and
// yaml.v3 decoding. Scalars are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneProperties(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
