package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrapps/leave-workflow/internal/models"
	"github.com/hrapps/leave-workflow/internal/workflow"
)

func strPtr(s string) *string { return &s }

func TestDefinitionCreate(t *testing.T) {
	_, defs := newTestEnv(t)

	t.Run("defaults", func(t *testing.T) {
		def, err := defs.Create(CreateDefinitionInput{})
		require.NoError(t, err)
		assert.Equal(t, "Untitled workflow", def.Name)
		assert.Equal(t, models.InitialVersion, def.Version)
		assert.True(t, def.IsActive)
		assert.NotNil(t, def.Graph.Nodes)
		assert.Empty(t, def.Graph.Nodes)
	})

	t.Run("graph is copied not aliased", func(t *testing.T) {
		graph := &models.Graph{
			Nodes: []models.Node{{ID: "start", Kind: models.NodeStart}},
		}
		def, err := defs.Create(CreateDefinitionInput{Name: "aliasing", Graph: graph})
		require.NoError(t, err)

		graph.Nodes[0].ID = "mutated"
		assert.Equal(t, "start", def.Graph.Nodes[0].ID)
	})
}

func TestDefinitionUpdate_VersionMonotonic(t *testing.T) {
	_, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)
	require.Equal(t, "1.0", def.Version)

	def, err := defs.Update(def.ID, UpdateDefinitionInput{Name: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "1.1", def.Version)
	assert.Equal(t, "Renamed", def.Name)

	def, err = defs.Update(def.ID, UpdateDefinitionInput{Description: strPtr("with note")})
	require.NoError(t, err)
	assert.Equal(t, "1.2", def.Version)

	// The bumped version must be what a fresh read observes.
	got, err := defs.Get(def.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.2", got.Version)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "with note", got.Description)
}

func TestDefinitionUpdate_NotFound(t *testing.T) {
	_, defs := newTestEnv(t)
	_, err := defs.Update("missing", UpdateDefinitionInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestDefinitionPatch_DoesNotBumpVersion(t *testing.T) {
	_, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	patched, err := defs.Patch(def.ID, UpdateDefinitionInput{Description: strPtr("autosave")})
	require.NoError(t, err)
	assert.Equal(t, "1.0", patched.Version)
	assert.Equal(t, "autosave", patched.Description)
}

func TestDefinitionDuplicate(t *testing.T) {
	_, defs := newTestEnv(t)
	src := createTwoStepDefinition(t, defs)

	src, err := defs.Update(src.ID, UpdateDefinitionInput{Name: strPtr("Reviewed flow")})
	require.NoError(t, err)
	require.Equal(t, "1.1", src.Version)

	dup, err := defs.Duplicate(src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Reviewed flow (copy)", dup.Name)
	assert.Equal(t, models.InitialVersion, dup.Version, "copy restarts its own edit history")
	assert.Equal(t, len(src.Graph.Nodes), len(dup.Graph.Nodes))

	// Editing the copy must not touch the source graph.
	_, err = defs.Update(dup.ID, UpdateDefinitionInput{Graph: &models.Graph{}})
	require.NoError(t, err)

	got, err := defs.Get(src.ID)
	require.NoError(t, err)
	assert.Len(t, got.Graph.Nodes, 4)
}

func TestDefinitionDelete(t *testing.T) {
	_, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	require.NoError(t, defs.Delete(def.ID))

	_, err := defs.Get(def.ID)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	err = defs.Delete(def.ID)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestDefinitionList(t *testing.T) {
	_, defs := newTestEnv(t)

	for _, name := range []string{"one", "two", "three"} {
		_, err := defs.Create(CreateDefinitionInput{Name: name})
		require.NoError(t, err)
	}

	all, err := defs.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
