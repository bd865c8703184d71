package batch

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/mongodb"
	"github.com/hub-search/indexcore/internal/opensearch"
)

// Mode tokens, per spec glossary.
const (
	ModeIndex  = "index"
	ModeResume = "resume"
	ModeMerge  = "merge"
	ModePurge  = "purge"
)

// RunTask is the worker-side IndexingTask of spec §4.1.4. It scans the
// documents with _id ∈ desc.IDs from source, builds one `index` bulk action
// per document (in merge mode its source is first deep-merged over the
// currently-indexed document), and writes them to dest.
// It returns the count of documents successfully written. Per-document
// bulk rejections are logged and do not fail the batch; errors returned
// from this function are infrastructure failures of the whole batch.
func RunTask(ctx context.Context, source *mongodb.Collection, dest *opensearch.Client, desc Descriptor) (int64, error) {
	if len(desc.IDs) == 0 {
		return 0, nil
	}

	cursor, err := source.FindByIDs(ctx, desc.IDs)
	if err != nil {
		return 0, fmt.Errorf("batch %d: scan source: %w", desc.BatchNum, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("batch %d: decode source doc: %v", desc.BatchNum, err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("batch %d: cursor: %w", desc.BatchNum, err)
	}

	bulkDocs := make([]opensearch.BulkDoc, 0, len(docs))
	for _, doc := range docs {
		id := idString(doc["_id"])
		fields := withoutID(doc)

		if desc.Mode == ModeMerge {
			merged, err := mergeWithExisting(ctx, dest, desc.DestIndex, id, fields)
			if err != nil {
				return 0, fmt.Errorf("batch %d: merge doc %s: %w", desc.BatchNum, id, err)
			}
			fields = merged
		}

		bulkDocs = append(bulkDocs, opensearch.BulkDoc{ID: id, Source: fields})
	}

	results, err := dest.BulkIndex(ctx, desc.DestIndex, bulkDocs)
	if err != nil {
		return 0, fmt.Errorf("batch %d: bulk index: %w", desc.BatchNum, err)
	}

	var count int64
	for _, r := range results {
		if r.Success {
			count++
		} else {
			log.Printf("batch %d: doc %s rejected: %s", desc.BatchNum, r.ID, r.Err)
		}
	}
	return count, nil
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func withoutID(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}
