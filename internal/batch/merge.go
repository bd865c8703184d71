package batch

import (
	"context"

	"github.com/hub-search/indexcore/internal/opensearch"
)

// mergeWithExisting reads the currently-indexed document (if any) and
// deep-merges incoming over existing, per spec §4.1.4: "nested-map
// recursive union; lists are replaced, not concatenated; null overwrites".
func mergeWithExisting(ctx context.Context, dest *opensearch.Client, index, id string, incoming map[string]any) (map[string]any, error) {
	existing, ok, err := dest.Get(ctx, index, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return incoming, nil
	}
	return deepMerge(existing, incoming), nil
}

// deepMerge recursively unions base and overlay, overlay taking
// precedence. Nested maps merge key-by-key; any other value type
// (including slices) is replaced wholesale by overlay's value, and an
// explicit nil in overlay overwrites whatever base held.
func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if existing, ok := out[k]; ok {
			if existingMap, isMap := existing.(map[string]any); isMap {
				if overlayMap, overlayIsMap := v.(map[string]any); overlayIsMap {
					out[k] = deepMerge(existingMap, overlayMap)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}
