package manager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hub-search/indexcore/internal/indexer"
)

func TestLookup_FindsDefaultIndexerClass(t *testing.T) {
	factory, ok := lookup(DefaultIndexerClass)
	require.True(t, ok)
	require.NotNil(t, factory)
}

func TestLookup_UnknownClasspathNotFound(t *testing.T) {
	_, ok := lookup("NoSuchIndexer")
	require.False(t, ok)
}

func TestRegister_AddsNewIndexerClass(t *testing.T) {
	called := false
	Register("TestCustomIndexer", func(deps Deps) *indexer.Indexer {
		called = true
		return &indexer.Indexer{DestIndex: deps.DestIndex}
	})

	factory, ok := lookup("TestCustomIndexer")
	require.True(t, ok)

	ix := factory(Deps{DestIndex: "some-index"})
	require.True(t, called)
	require.Equal(t, "some-index", ix.DestIndex)
}

func TestNewDefaultIndexer_CopiesAllDeps(t *testing.T) {
	deps := Deps{
		SourceDB:    "db",
		SourceCol:   "col",
		DestIndex:   "idx",
		Concurrency: 4,
	}
	ix := newDefaultIndexer(deps)
	require.Equal(t, "db", ix.SourceDB)
	require.Equal(t, "col", ix.SourceCol)
	require.Equal(t, "idx", ix.DestIndex)
	require.Equal(t, 4, ix.Concurrency)
}
