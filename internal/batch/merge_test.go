package batch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeepMerge_NestedMapsUnionRecursively(t *testing.T) {
	base := map[string]any{
		"title": "old",
		"meta": map[string]any{
			"author": "alice",
			"tags":   []any{"a", "b"},
		},
	}
	overlay := map[string]any{
		"meta": map[string]any{
			"author": "bob",
			"year":   2020,
		},
	}

	out := deepMerge(base, overlay)

	require.Equal(t, "old", out["title"])
	meta, ok := out["meta"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "bob", meta["author"])
	require.Equal(t, 2020, meta["year"])
	require.Equal(t, []any{"a", "b"}, meta["tags"])
}

func TestDeepMerge_ListsReplacedNotConcatenated(t *testing.T) {
	base := map[string]any{"tags": []any{"a", "b", "c"}}
	overlay := map[string]any{"tags": []any{"z"}}

	out := deepMerge(base, overlay)
	require.Equal(t, []any{"z"}, out["tags"])
}

func TestDeepMerge_ExplicitNilOverwrites(t *testing.T) {
	base := map[string]any{"field": "value"}
	overlay := map[string]any{"field": nil}

	out := deepMerge(base, overlay)
	require.Nil(t, out["field"])
	_, present := out["field"]
	require.True(t, present)
}

func TestDeepMerge_ScalarOverlayReplacesNestedMap(t *testing.T) {
	base := map[string]any{"meta": map[string]any{"a": 1}}
	overlay := map[string]any{"meta": "flattened"}

	out := deepMerge(base, overlay)
	require.Equal(t, "flattened", out["meta"])
}
