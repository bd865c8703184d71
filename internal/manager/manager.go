package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/buildstore"
	"github.com/hub-search/indexcore/internal/config"
	"github.com/hub-search/indexcore/internal/errs"
	"github.com/hub-search/indexcore/internal/indexer"
	"github.com/hub-search/indexcore/internal/jobstate"
	"github.com/hub-search/indexcore/internal/mongodb"
	"github.com/hub-search/indexcore/internal/opensearch"
)

// Deps bundles everything a registered IndexerFactory needs to build one
// Indexer instance for a resolved build/environment pair.
type Deps struct {
	SourceDB    string
	SourceCol   string
	DestIndex   string
	Source      *mongodb.Collection
	Dest        *opensearch.Client
	Settings    indexer.Settings
	Mappings    indexer.Mappings
	BulkArgs    map[string]any
	Concurrency int
	Registrar   indexer.RegistrarFactory
}

// IndexManager is the manager of spec §4.5: it resolves a build record and
// environment into a concrete Indexer, selects the indexer class via
// indexer_select, and serializes management operations through a
// single-flight guard.
type IndexManager struct {
	Cfg     *config.Config
	Hub     *config.HubConfig
	Mongo   *mongodb.Client
	Store   *buildstore.Store
	MongoDB string // database name builds/collections live in

	inFlight atomic.Bool // single-flight guard, category=INDEXMANAGER
}

// TryAcquire implements the single-flight admission predicate of spec
// §4.5: "denies new management steps when any other job with
// category=INDEXMANAGER is running". Returns false if another management
// operation already holds the guard.
func (m *IndexManager) TryAcquire() bool {
	return m.inFlight.CompareAndSwap(false, true)
}

// Release frees the single-flight guard.
func (m *IndexManager) Release() {
	m.inFlight.Store(false)
}

// SelectIndexerClass implements spec §4.5's selection rule: traverse every
// dotted path of buildDoc, collect the ones present in indexerSelect; if
// exactly one matches, return its classpath; if more than one matches,
// return AmbiguousIndexerSelection; otherwise return DefaultIndexerClass.
// The "" key is the explicit default override and is excluded from the
// path scan (it never matches an actual document path).
func SelectIndexerClass(buildDoc bson.M, indexerSelect map[string]string) (string, error) {
	if len(indexerSelect) == 0 {
		return DefaultIndexerClass, nil
	}

	paths := flattenPaths("", buildDoc)

	var matched []string
	for _, p := range paths {
		if _, ok := indexerSelect[p]; ok {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		if classpath, ok := indexerSelect[""]; ok {
			return classpath, nil
		}
		return DefaultIndexerClass, nil
	case 1:
		return indexerSelect[matched[0]], nil
	default:
		sort.Strings(matched)
		return "", &errs.AmbiguousIndexerSelection{Paths: matched}
	}
}

func flattenPaths(prefix string, v any) []string {
	m, ok := v.(bson.M)
	if !ok {
		if mm, ok2 := v.(map[string]any); ok2 {
			m = bson.M(mm)
			ok = true
		}
	}
	if !ok {
		if prefix == "" {
			return nil
		}
		return []string{prefix}
	}

	var out []string
	if prefix != "" {
		out = append(out, prefix)
	}
	for k, val := range m {
		childPrefix := k
		if prefix != "" {
			childPrefix = prefix + "." + k
		}
		out = append(out, flattenPaths(childPrefix, val)...)
	}
	return out
}

// BuildIndexer resolves buildID's build record and environment into a
// ready-to-run Indexer, selecting its class via indexer_select.
func (m *IndexManager) BuildIndexer(ctx context.Context, buildID, env string) (*indexer.Indexer, error) {
	rec, err := m.Store.Get(ctx, buildID)
	if err != nil {
		return nil, fmt.Errorf("load build %s: %w", buildID, err)
	}

	raw, err := m.rawBuildDoc(ctx, buildID)
	if err != nil {
		return nil, err
	}
	classpath, err := SelectIndexerClass(raw, m.Hub.IndexerSelect)
	if err != nil {
		return nil, err
	}
	factory, ok := lookup(classpath)
	if !ok {
		return nil, &errs.ConfigError{Key: "indexer_select:" + classpath}
	}

	envCfg, ok := m.Hub.EnvByName(env)
	if !ok {
		return nil, &errs.ConfigError{Key: "env." + env}
	}

	sourceDB, err := rec.SourceDB()
	if err != nil {
		return nil, err
	}
	sourceCol, err := rec.SourceCollection()
	if err != nil {
		return nil, err
	}

	dest, err := opensearch.NewClient(m.Cfg, envCfg.Args)
	if err != nil {
		return nil, fmt.Errorf("build opensearch client for env %s: %w", env, err)
	}

	settings := indexer.DefaultSettings().WithBuildConfig(rec.BuildConfig)
	mappings := indexer.DefaultMappings().WithBuildConfig(rec.BuildConfig, rec.Mapping, rec.Meta)

	deps := Deps{
		SourceDB:    sourceDB,
		SourceCol:   sourceCol,
		DestIndex:   rec.TargetName,
		Source:      m.Mongo.Collection(sourceDB, sourceCol),
		Dest:        dest,
		Settings:    settings,
		Mappings:    mappings,
		BulkArgs:    envCfg.Bulk,
		Concurrency: envCfg.ConcurrencyOrDefault(),
		Registrar: func(phase string) *jobstate.Registrar {
			return m.Store.Registrar(buildID, "index."+rec.TargetName+"."+phase)
		},
	}
	return factory(deps), nil
}

func (m *IndexManager) rawBuildDoc(ctx context.Context, buildID string) (bson.M, error) {
	doc, err := m.Mongo.Collection(m.MongoDB, "builds").Get(ctx, bson.M{"_id": buildID})
	if err != nil {
		return nil, fmt.Errorf("load raw build %s: %w", buildID, err)
	}
	return doc, nil
}

// ValidateMapping implements spec's `validate_mapping` verb: create a
// throwaway `hub_tmp_<rand>` index with the candidate mapping, assert it
// was accepted by the cluster, then delete it — on success or failure
// alike, leaving no `hub_tmp_*` indices behind (spec Testable Properties
// §8 item 7).
func (m *IndexManager) ValidateMapping(ctx context.Context, dest *opensearch.Client, mapping map[string]any, settings map[string]any) (err error) {
	tmpName := "hub_tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	// Delete runs in a finally-equivalent so the temp index is always
	// removed, whether Create below succeeds or fails (spec §6, §8 item 7).
	defer func() {
		if derr := dest.Delete(ctx, tmpName); derr != nil && err == nil {
			err = fmt.Errorf("validate_mapping: cleanup %s: %w", tmpName, derr)
		}
	}()

	if cerr := dest.Create(ctx, tmpName, map[string]any{"settings": settings, "mappings": mapping}); cerr != nil {
		return fmt.Errorf("validate_mapping: create %s: %w", tmpName, cerr)
	}

	if _, mErr := dest.GetMapping(ctx, tmpName); mErr != nil {
		return fmt.Errorf("validate_mapping: get_mapping %s: %w", tmpName, mErr)
	}
	return nil
}
