package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manash/genstate/internal/history"
	"github.com/manash/genstate/pkg/models"
)

func landingTree() []models.Component {
	return []models.Component{
		{
			ID:   "header",
			Type: "container",
			Children: []models.Component{
				{ID: "title", Type: "text", Label: "Welcome"},
			},
		},
		{ID: "cta", Type: "button", Label: "Sign up", Properties: map[string]any{"color": "blue"}},
	}
}

func newWireframe(t *testing.T, s *Store) (string, *models.Wireframe) {
	t.Helper()
	ctx := context.Background()
	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)
	wf, err := s.CreateWireframe(ctx, sess.ID, "landing page", 1280, 720, landingTree())
	require.NoError(t, err)
	return sess.ID, wf
}

func strPtr(s string) *string { return &s }

func TestStore_WireframeScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	updated, err := env.store.UpdateComponent(ctx, sid, wf.ID, "title", models.ComponentPatch{Label: strPtr("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "Hello", models.FindComponent(updated.Components, "title").Label)

	restored, err := env.store.UndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", models.FindComponent(restored.Components, "title").Label)

	models.FindComponent(restored.Components, "title").Label = "tampered"
	restored.Components[1].Properties["color"] = "red"

	redone, err := env.store.RedoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", models.FindComponent(redone.Components, "title").Label)

	again, err := env.store.UndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", models.FindComponent(again.Components, "title").Label)
	assert.Equal(t, "blue", models.FindComponent(again.Components, "cta").Properties["color"])

	_, err = env.store.UndoWireframe(ctx, sid, wf.ID)
	assert.ErrorIs(t, err, history.ErrNothingToUndo)
}

func TestStore_CreateWireframeSetsCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	cur, err := env.store.CurrentWireframe(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, wf.ID, cur.ID)
	assert.Equal(t, 1280, cur.Metadata.Width)

	canUndo, err := env.store.CanUndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.False(t, canUndo, "a fresh wireframe has nothing to undo")

	_, err = env.store.CreateWireframe(ctx, "missing", "x", 0, 0, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_AddAndRemoveComponent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	added, err := env.store.AddComponent(ctx, sid, wf.ID, "header", models.Component{Type: "image"})
	require.NoError(t, err)
	header := models.FindComponent(added.Components, "header")
	require.Len(t, header.Children, 2)
	assert.NotEmpty(t, header.Children[1].ID, "component id should be assigned")

	_, err = env.store.AddComponent(ctx, sid, wf.ID, "", models.Component{ID: "cta", Type: "button"})
	assert.ErrorIs(t, err, ErrDuplicateComponent)
	_, err = env.store.AddComponent(ctx, sid, wf.ID, "ghost", models.Component{Type: "text"})
	assert.ErrorIs(t, err, models.ErrComponentNotFound)

	removed, err := env.store.RemoveComponent(ctx, sid, wf.ID, "header")
	require.NoError(t, err)
	assert.Equal(t, 1, models.CountComponents(removed.Components))

	_, err = env.store.RemoveComponent(ctx, sid, wf.ID, "header")
	assert.ErrorIs(t, err, models.ErrComponentNotFound)

	back, err := env.store.UndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.NotNil(t, models.FindComponent(back.Components, "header"))

	persisted, err := env.store.LoadWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CountComponents(back.Components), models.CountComponents(persisted.Components))
}

func TestStore_SaveWireframe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	wf.Description = "landing page v2"
	wf.Components = []models.Component{{ID: "hero", Type: "image"}}
	saved, err := env.store.SaveWireframe(ctx, wf)
	require.NoError(t, err)
	assert.Equal(t, "landing page v2", saved.Description)

	canUndo, err := env.store.CanUndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.True(t, canUndo)

	_, err = env.store.SaveWireframe(ctx, &models.Wireframe{ID: "nope", SessionID: sid})
	assert.ErrorIs(t, err, ErrWireframeNotFound)
}

func TestStore_UpdateWireframe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	tree := []models.Component{{ID: "grid", Type: "container"}}
	updated, err := env.store.UpdateWireframe(ctx, sid, wf.ID, tree)
	require.NoError(t, err)
	tree[0].Type = "mutated"
	assert.Equal(t, "container", updated.Components[0].Type)

	back, err := env.store.UndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, models.CountComponents(back.Components))

	canRedo, err := env.store.CanRedoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.True(t, canRedo)
}

func TestStore_WireframeHistoryAfterRestart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)
	_, err := env.store.UpdateComponent(ctx, sid, wf.ID, "cta", models.ComponentPatch{Label: strPtr("Join")})
	require.NoError(t, err)

	restarted := env.open()
	seeded, err := restarted.InitializeWireframeHistory(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.True(t, seeded)
	seeded, err = restarted.InitializeWireframeHistory(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.False(t, seeded, "second initialization is a no-op")

	canUndo, err := restarted.CanUndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.False(t, canUndo, "undo history is not persisted")

	cur, err := restarted.LoadWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Join", models.FindComponent(cur.Components, "cta").Label)
}

func TestStore_FailedWireframeWriteKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, wf := newWireframe(t, env.store)

	env.backend.failWrites.Store(true)
	_, err := env.store.UpdateComponent(ctx, sid, wf.ID, "title", models.ComponentPatch{Label: strPtr("Lost")})
	require.Error(t, err)
	env.backend.failWrites.Store(false)

	canUndo, err := env.store.CanUndoWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.False(t, canUndo)

	cur, err := env.store.LoadWireframe(ctx, sid, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", models.FindComponent(cur.Components, "title").Label)
}

func TestStore_ListAndDeleteWireframes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid, first := newWireframe(t, env.store)
	second, err := env.store.CreateWireframe(ctx, sid, "pricing", 0, 0, nil)
	require.NoError(t, err)

	wfs, err := env.store.ListWireframes(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, wfs, 2)

	require.NoError(t, env.store.DeleteWireframe(ctx, sid, second.ID))
	sess, err := env.store.LoadSession(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, sess.CurrentWireframeID, "deleting the current wireframe clears the pointer")

	wfs, err = env.store.ListWireframes(ctx, sid)
	require.NoError(t, err)
	require.Len(t, wfs, 1)
	assert.Equal(t, first.ID, wfs[0].ID)

	err = env.store.DeleteWireframe(ctx, sid, second.ID)
	assert.ErrorIs(t, err, ErrWireframeNotFound)
}
