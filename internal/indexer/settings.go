package indexer

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/buildstore"
	"github.com/hub-search/indexcore/internal/opensearch"
)

// hubDocTypeKey is the dedicated mapping key spec §3 reserves for the
// build's doc_type: "a dedicated `__hub_doc_type` key".
const hubDocTypeKey = "__hub_doc_type"

// Settings is the open-ended index-settings map of spec §3, initialized
// from defaults and enriched from the build record.
type Settings map[string]any

// DefaultSettings returns the baseline settings every index starts from.
func DefaultSettings() Settings {
	return Settings{
		"number_of_shards":   1,
		"number_of_replicas": 1,
	}
}

// WithBuildConfig overlays `num_shards`/`num_replicas` from the build's
// build_config, when present (spec §3).
func (s Settings) WithBuildConfig(bc buildstore.BuildConfig) Settings {
	out := cloneMap(s)
	if bc.NumShards != nil {
		out["number_of_shards"] = *bc.NumShards
	}
	if bc.NumReplicas != nil {
		out["number_of_replicas"] = *bc.NumReplicas
	}
	return out
}

// Finalize may consult the live cluster before submission (spec §3: "a
// finalize(client) step that may consult the live search-engine cluster
// e.g. to resolve version-dependent adjustments"). This implementation is a
// pass-through: it returns a copy of the settings and does not consult
// client.
func (s Settings) Finalize(ctx context.Context, client *opensearch.Client) (map[string]any, error) {
	return map[string]any(cloneMap(s)), nil
}

// Mappings is the open-ended index-mappings map of spec §3.
type Mappings map[string]any

// DefaultMappings returns the baseline mappings document (an empty
// properties subtree).
func DefaultMappings() Mappings {
	return Mappings{"properties": map[string]any{}}
}

// WithBuildConfig folds the build's doc_type, user field mapping, and
// _meta into the mappings document, per spec §3: "doc_type, user field
// mapping, and _meta into mappings under a dedicated __hub_doc_type key
// and a properties subtree".
func (m Mappings) WithBuildConfig(bc buildstore.BuildConfig, fieldMapping map[string]string, meta bson.M) Mappings {
	out := cloneMap(m)

	properties, _ := out["properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}
	for field, typ := range fieldMapping {
		properties[field] = map[string]any{"type": typ}
	}
	out["properties"] = properties

	if bc.DocType != "" {
		out[hubDocTypeKey] = bc.DocType
	}
	if len(meta) > 0 {
		out["_meta"] = map[string]any(meta)
	}
	return out
}

// Finalize mirrors Settings.Finalize: a documented extension point for
// cluster-aware mapping adjustments, pass-through by default.
func (m Mappings) Finalize(ctx context.Context, client *opensearch.Client) (map[string]any, error) {
	return map[string]any(cloneMap(m)), nil
}

func cloneMap[T ~map[string]any](m T) T {
	out := make(T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
