package manager

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/errs"
)

func TestSelectIndexerClass_NoSelectConfiguredReturnsDefault(t *testing.T) {
	classpath, err := SelectIndexerClass(bson.M{"name": "books"}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultIndexerClass, classpath)
}

func TestSelectIndexerClass_SingleMatchReturnsItsClasspath(t *testing.T) {
	doc := bson.M{"build_config": bson.M{"name": "courses"}}
	indexerSelect := map[string]string{"build_config.name": "CourseIndexer"}

	classpath, err := SelectIndexerClass(doc, indexerSelect)
	require.NoError(t, err)
	require.Equal(t, "CourseIndexer", classpath)
}

func TestSelectIndexerClass_NoMatchFallsBackToEmptyKeyOverride(t *testing.T) {
	doc := bson.M{"build_config": bson.M{"name": "courses"}}
	indexerSelect := map[string]string{"unrelated.path": "X", "": "FallbackIndexer"}

	classpath, err := SelectIndexerClass(doc, indexerSelect)
	require.NoError(t, err)
	require.Equal(t, "FallbackIndexer", classpath)
}

func TestSelectIndexerClass_NoMatchNoOverrideFallsBackToDefault(t *testing.T) {
	doc := bson.M{"build_config": bson.M{"name": "courses"}}
	indexerSelect := map[string]string{"unrelated.path": "X"}

	classpath, err := SelectIndexerClass(doc, indexerSelect)
	require.NoError(t, err)
	require.Equal(t, DefaultIndexerClass, classpath)
}

func TestSelectIndexerClass_MultipleMatchesAreAmbiguous(t *testing.T) {
	doc := bson.M{"build_config": bson.M{"cold_collection": "archive", "name": "courses"}}
	indexerSelect := map[string]string{
		"build_config.cold_collection": "X",
		"build_config.name":            "Y",
	}

	_, err := SelectIndexerClass(doc, indexerSelect)
	require.Error(t, err)
	var ambiguous *errs.AmbiguousIndexerSelection
	require.ErrorAs(t, err, &ambiguous)
	sorted := append([]string(nil), ambiguous.Paths...)
	sort.Strings(sorted)
	require.Equal(t, []string{"build_config.cold_collection", "build_config.name"}, sorted)
}

func TestFlattenPaths_EmitsIntermediateAndLeafPaths(t *testing.T) {
	doc := bson.M{"build_config": bson.M{"name": "courses", "num_shards": 3}}
	paths := flattenPaths("", doc)

	require.Contains(t, paths, "build_config")
	require.Contains(t, paths, "build_config.name")
	require.Contains(t, paths, "build_config.num_shards")
}

func TestFlattenPaths_ScalarRootYieldsNoPaths(t *testing.T) {
	require.Nil(t, flattenPaths("", "scalar"))
}

func TestIndexManager_SingleFlightGuardSerializesAcquisition(t *testing.T) {
	m := &IndexManager{}

	require.True(t, m.TryAcquire())
	require.False(t, m.TryAcquire())

	m.Release()
	require.True(t, m.TryAcquire())
}
