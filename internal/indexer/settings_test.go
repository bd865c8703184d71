package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/buildstore"
)

func TestSettingsWithBuildConfig_OverlaysShardsAndReplicas(t *testing.T) {
	shards, replicas := 5, 2
	bc := buildstore.BuildConfig{NumShards: &shards, NumReplicas: &replicas}

	out := DefaultSettings().WithBuildConfig(bc)
	require.Equal(t, 5, out["number_of_shards"])
	require.Equal(t, 2, out["number_of_replicas"])
}

func TestSettingsWithBuildConfig_LeavesDefaultsWhenUnset(t *testing.T) {
	out := DefaultSettings().WithBuildConfig(buildstore.BuildConfig{})
	require.Equal(t, 1, out["number_of_shards"])
	require.Equal(t, 1, out["number_of_replicas"])
}

func TestMappingsWithBuildConfig_SetsDocTypeAndProperties(t *testing.T) {
	bc := buildstore.BuildConfig{DocType: "article"}
	fieldMapping := map[string]string{"title": "text", "year": "integer"}
	meta := bson.M{"source": "cold"}

	out := DefaultMappings().WithBuildConfig(bc, fieldMapping, meta)

	require.Equal(t, "article", out[hubDocTypeKey])
	props, ok := out["properties"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, map[string]any{"type": "text"}, props["title"])
	require.Equal(t, map[string]any{"type": "integer"}, props["year"])
	require.Equal(t, map[string]any(meta), out["_meta"])
}

func TestMappingsWithBuildConfig_OmitsEmptyDocType(t *testing.T) {
	out := DefaultMappings().WithBuildConfig(buildstore.BuildConfig{}, nil, nil)
	_, present := out[hubDocTypeKey]
	require.False(t, present)
}

func TestCloneMap_IsIndependentOfSource(t *testing.T) {
	s := DefaultSettings()
	clone := s.WithBuildConfig(buildstore.BuildConfig{})
	clone["number_of_shards"] = 99
	require.Equal(t, 1, s["number_of_shards"])
}
