// Package coldhot implements the ColdHotIndexer of spec §4.2: composing
// two Indexers over a shared destination index, a cold bulk load followed
// by a hot merge on top of it.
package coldhot

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/buildstore"
	"github.com/hub-search/indexcore/internal/indexer"
)

// Indexers bundles the two Indexer instances ColdHot composes. Both target
// the same DestIndex; Cold is expected to run with the caller's mode, Hot
// is always run with mode=merge.
type Indexers struct {
	Cold *indexer.Indexer
	Hot  *indexer.Indexer
}

// Run implements spec §4.2's five steps:
//  1. read the hot build record's cold_collection reference and load the
//     cold build record (done by the caller, which supplies hotBuild and
//     coldBuild already resolved via buildstore.Store.Get),
//  2. merge cold+hot metadata (mapping union, hot overrides on conflict;
//     _meta deep-merged, hot overrides),
//  3. run cold.index(pre, index) with the caller's mode,
//  4. run hot.index(index) with mode=merge — never mode=index, since the
//     index already exists after step 3,
//  5. if requested, run hot.post_index once.
//
// Result is {dest_index: {count: N}}, counts summed across cold and hot.
func Run(ctx context.Context, ix Indexers, hotBuild, coldBuild *buildstore.Record, mode string, batchSize int, wantPost bool) (map[string]any, error) {
	mergedMapping := mergeMapping(coldBuild.Mapping, hotBuild.Mapping)
	mergedMeta := deepMergeMeta(coldBuild.Meta, hotBuild.Meta)

	ix.Cold.Mappings = ix.Cold.Mappings.WithBuildConfig(coldBuild.BuildConfig, mergedMapping, mergedMeta)
	ix.Hot.Mappings = ix.Hot.Mappings.WithBuildConfig(hotBuild.BuildConfig, mergedMapping, mergedMeta)

	coldResult, err := ix.Cold.Index(ctx, indexer.Params{
		Steps:     []string{indexer.StepPre, indexer.StepIndex},
		BatchSize: batchSize,
		Mode:      mode,
	})
	if err != nil {
		return coldResult, fmt.Errorf("cold index: %w", err)
	}

	hotResult, err := ix.Hot.Index(ctx, indexer.Params{
		Steps:     []string{indexer.StepIndex},
		BatchSize: batchSize,
		Mode:      indexer.ModeMerge, // never mode=index: the index already exists
	})
	merged := mergeResults(coldResult, hotResult)
	if err != nil {
		return merged, fmt.Errorf("hot index: %w", err)
	}

	if wantPost {
		if _, err := ix.Hot.Index(ctx, indexer.Params{
			Steps:     []string{indexer.StepPost},
			BatchSize: batchSize,
			Mode:      indexer.ModeMerge,
		}); err != nil {
			return merged, fmt.Errorf("hot post_index: %w", err)
		}
	}

	return merged, nil
}

// mergeResults sums counts for same-keyed dest_index entries, per spec
// §4.2: "merge(result) sums counts for same-keyed entries".
func mergeResults(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		existing, ok := out[k].(map[string]any)
		incoming, _ := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		out[k] = map[string]any{
			"count": toInt64(existing["count"]) + toInt64(incoming["count"]),
		}
	}
	return out
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	default:
		return 0
	}
}

// mergeMapping unions two field→type maps, hot overriding on key conflict.
func mergeMapping(cold, hot map[string]string) map[string]string {
	out := make(map[string]string, len(cold)+len(hot))
	for k, v := range cold {
		out[k] = v
	}
	for k, v := range hot {
		out[k] = v
	}
	return out
}

// deepMergeMeta merges cold._meta and hot._meta with hot overriding on
// scalar conflicts, last-write-wins per spec §4.2's build-metadata merge
// rules (same deep-merge semantics as batch.mergeWithExisting's document
// overlay, applied here to metadata instead of document fields).
func deepMergeMeta(cold, hot bson.M) bson.M {
	out := make(bson.M, len(cold))
	for k, v := range cold {
		out[k] = v
	}
	for k, v := range hot {
		if existing, ok := out[k].(bson.M); ok {
			if incoming, ok := v.(bson.M); ok {
				out[k] = deepMergeMeta(existing, incoming)
				continue
			}
		}
		out[k] = v
	}
	return out
}
