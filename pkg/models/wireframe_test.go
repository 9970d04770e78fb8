package models

import "testing"

func sampleForest() []Component {
	return []Component{
		{
			ID:         "header",
			Type:       "container",
			Position:   &Position{X: 0, Y: 0},
			Dimensions: &Dimensions{Width: 1200, Height: 80},
			Properties: map[string]any{"tags": []any{"sticky"}},
			Children: []Component{
				{ID: "logo", Type: "image"},
				{ID: "nav", Type: "menu", Children: []Component{{ID: "nav-home", Type: "link"}}},
			},
		},
		{ID: "hero", Type: "section"},
	}
}

func TestCloneComponents_DeepCopy(t *testing.T) {
	orig := sampleForest()
	cp := CloneComponents(orig)

	cp[0].Position.X = 50
	cp[0].Dimensions.Height = 10
	cp[0].Properties["tags"].([]any)[0] = "floating"
	cp[0].Children[1].Children[0].Label = "changed"

	if orig[0].Position.X != 0 {
		t.Errorf("Position aliased: X = %d", orig[0].Position.X)
	}
	if orig[0].Dimensions.Height != 80 {
		t.Errorf("Dimensions aliased: Height = %d", orig[0].Dimensions.Height)
	}
	if orig[0].Properties["tags"].([]any)[0] != "sticky" {
		t.Errorf("Properties aliased: %v", orig[0].Properties["tags"])
	}
	if orig[0].Children[1].Children[0].Label != "" {
		t.Errorf("Children aliased: %q", orig[0].Children[1].Children[0].Label)
	}
}

func TestFindComponent(t *testing.T) {
	forest := sampleForest()

	tests := []struct {
		id    string
		found bool
	}{
		{"header", true},
		{"nav-home", true},
		{"hero", true},
		{"footer", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := FindComponent(forest, tt.id)
			if (got != nil) != tt.found {
				t.Fatalf("FindComponent(%q) found = %v, want %v", tt.id, got != nil, tt.found)
			}
			if got != nil && got.ID != tt.id {
				t.Errorf("FindComponent(%q).ID = %q", tt.id, got.ID)
			}
		})
	}
}

func TestRemoveComponent(t *testing.T) {
	forest := sampleForest()

	forest, ok := RemoveComponent(forest, "nav")
	if !ok {
		t.Fatal("RemoveComponent(nav) ok = false")
	}
	if FindComponent(forest, "nav-home") != nil {
		t.Error("subtree of removed component still present")
	}
	if got := CountComponents(forest); got != 3 {
		t.Errorf("CountComponents() = %d, want 3", got)
	}

	if _, ok := RemoveComponent(forest, "missing"); ok {
		t.Error("RemoveComponent(missing) ok = true")
	}
}

func TestComponentPatch_Apply(t *testing.T) {
	label := "Buy now"
	c := Component{ID: "cta", Type: "button", Properties: map[string]any{"color": "blue", "size": "lg"}}

	ComponentPatch{
		Label:      &label,
		Position:   &Position{X: 10, Y: 20},
		Properties: map[string]any{"color": "red", "size": nil, "rounded": true},
	}.Apply(&c)

	if c.Label != "Buy now" {
		t.Errorf("Label = %q", c.Label)
	}
	if c.Position == nil || c.Position.Y != 20 {
		t.Errorf("Position = %+v", c.Position)
	}
	if c.Properties["color"] != "red" || c.Properties["rounded"] != true {
		t.Errorf("Properties = %v", c.Properties)
	}
	if _, ok := c.Properties["size"]; ok {
		t.Error("nil patch value did not delete key")
	}
	if c.Type != "button" {
		t.Errorf("Type changed to %q", c.Type)
	}
}
