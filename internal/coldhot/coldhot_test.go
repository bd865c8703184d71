package coldhot

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMergeResults_SumsCountsForSameKeyedEntries(t *testing.T) {
	cold := map[string]any{"docs": map[string]any{"count": int64(100)}}
	hot := map[string]any{"docs": map[string]any{"count": int64(7)}}

	out := mergeResults(cold, hot)
	require.Equal(t, map[string]any{"count": int64(107)}, out["docs"])
}

func TestMergeResults_KeepsEntriesOnlyPresentOnOneSide(t *testing.T) {
	cold := map[string]any{"docs": map[string]any{"count": int64(100)}}
	hot := map[string]any{"other": map[string]any{"count": int64(5)}}

	out := mergeResults(cold, hot)
	require.Equal(t, map[string]any{"count": int64(100)}, out["docs"])
	require.Equal(t, map[string]any{"count": int64(5)}, out["other"])
}

func TestMergeMapping_HotOverridesColdOnConflict(t *testing.T) {
	cold := map[string]string{"title": "text", "year": "integer"}
	hot := map[string]string{"year": "keyword", "score": "float"}

	out := mergeMapping(cold, hot)
	require.Equal(t, "text", out["title"])
	require.Equal(t, "keyword", out["year"])
	require.Equal(t, "float", out["score"])
}

func TestDeepMergeMeta_RecursesAndHotOverridesScalars(t *testing.T) {
	cold := bson.M{
		"source": "cold",
		"build":  bson.M{"cold_field": "x", "shared": "cold-value"},
	}
	hot := bson.M{
		"build": bson.M{"hot_field": "y", "shared": "hot-value"},
	}

	out := deepMergeMeta(cold, hot)
	require.Equal(t, "cold", out["source"])
	build, ok := out["build"].(bson.M)
	require.True(t, ok)
	require.Equal(t, "x", build["cold_field"])
	require.Equal(t, "y", build["hot_field"])
	require.Equal(t, "hot-value", build["shared"])
}

func TestToInt64_HandlesIntAndInt64AndFallsBackToZero(t *testing.T) {
	require.Equal(t, int64(5), toInt64(int64(5)))
	require.Equal(t, int64(5), toInt64(int(5)))
	require.Equal(t, int64(0), toInt64("not a number"))
	require.Equal(t, int64(0), toInt64(nil))
}
