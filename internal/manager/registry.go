// Package manager implements IndexManager and SnapshotManager of spec
// §4.5: environment registration, indexer-class selection, and the
// single-flight guard serializing management operations.
package manager

import (
	"github.com/hub-search/indexcore/internal/indexer"
)

// IndexerFactory builds the Indexer for one build/environment pair. The
// compile-time registry below replaces the source system's dynamic
// classpath loading (spec §9 Design Notes: "a compiled registry of
// indexer-class constructors keyed by string, populated at init() time").
type IndexerFactory func(deps Deps) *indexer.Indexer

// DefaultIndexerClass is the classpath returned when no indexer_select rule
// matches the build document, or none are defined (spec §4.5).
const DefaultIndexerClass = "DEFAULT_INDEXER"

var registry = map[string]IndexerFactory{
	DefaultIndexerClass: newDefaultIndexer,
}

// Register adds a named indexer-class constructor to the compile-time
// registry. Call from an init() in the package defining a custom class.
func Register(classpath string, factory IndexerFactory) {
	registry[classpath] = factory
}

func lookup(classpath string) (IndexerFactory, bool) {
	f, ok := registry[classpath]
	return f, ok
}

func newDefaultIndexer(deps Deps) *indexer.Indexer {
	return &indexer.Indexer{
		SourceDB:    deps.SourceDB,
		SourceCol:   deps.SourceCol,
		DestIndex:   deps.DestIndex,
		Source:      deps.Source,
		Dest:        deps.Dest,
		Settings:    deps.Settings,
		Mappings:    deps.Mappings,
		BulkArgs:    deps.BulkArgs,
		Concurrency: deps.Concurrency,
		Registrar:   deps.Registrar,
	}
}
