// Package buildstore wraps the build record of spec §3: the durable,
// build-id-keyed document the indexing pipeline reads configuration from
// and appends lifecycle sub-records to.
package buildstore

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/jobstate"
	"github.com/hub-search/indexcore/internal/mongodb"
)

// BuildConfig is the `build_config` object of spec §3.
type BuildConfig struct {
	Name           string `bson:"name"`
	DocType        string `bson:"doc_type"`
	NumShards      *int   `bson:"num_shards,omitempty"`
	NumReplicas    *int   `bson:"num_replicas,omitempty"`
	ColdCollection string `bson:"cold_collection,omitempty"`
}

// Record is the build record of spec §3, trimmed to the fields the core
// consumes.
type Record struct {
	ID            string            `bson:"_id"`
	TargetBackend string            `bson:"target_backend"` // "mongo" | "link"
	BackendURL    string            `bson:"backend_url"`    // "<db>.<collection>"
	TargetName    string            `bson:"target_name"`
	BuildConfig   BuildConfig       `bson:"build_config"`
	Mapping       map[string]string `bson:"mapping"`
	Meta          bson.M            `bson:"_meta"`
}

// SourceDB and SourceCollection split the backend_url "<db>.<collection>"
// pair (spec §3: "collection identifier or pair (db_kind, collection)").
func (r *Record) SourceDB() (string, error) {
	db, _, err := splitBackendURL(r.BackendURL)
	return db, err
}

func (r *Record) SourceCollection() (string, error) {
	_, col, err := splitBackendURL(r.BackendURL)
	return col, err
}

func splitBackendURL(url string) (db, col string, err error) {
	parts := strings.SplitN(url, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("backend_url %q: expected \"<db>.<collection>\"", url)
	}
	return parts[0], parts[1], nil
}

// Store reads and mutates build records in a MongoDB-backed `builds`
// collection, generalized from the teacher's direct bson.M/UpdateOne
// access pattern.
type Store struct {
	builds     *mongodb.Collection
	transients *mongodb.Collection
}

// New returns a Store backed by the given database's `builds` and
// `job_transients` collections.
func New(client *mongodb.Client, db string) *Store {
	return &Store{
		builds:     client.Collection(db, "builds"),
		transients: client.Collection(db, "job_transients"),
	}
}

// Get loads the build record for buildID.
func (s *Store) Get(ctx context.Context, buildID string) (*Record, error) {
	doc, err := s.builds.Get(ctx, bson.M{"_id": buildID})
	if err != nil {
		return nil, fmt.Errorf("load build %s: %w", buildID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("build %s not found", buildID)
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal build %s: %w", buildID, err)
	}
	var rec Record
	if err := bson.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode build %s: %w", buildID, err)
	}
	return &rec, nil
}

// Registrar returns a jobstate.Registrar scoped to buildID and the given
// dotted path (e.g. "index.myindex.pre" or "snapshot.s1.snapshot").
func (s *Store) Registrar(buildID, path string) *jobstate.Registrar {
	return jobstate.New(s.builds, s.transients, buildID, path)
}

// Prune rewrites every stale transient job-state record to canceled, per
// spec §4.3 ("on process start"). Call once at manager startup.
func (s *Store) Prune(ctx context.Context) error {
	return jobstate.Prune(ctx, s.builds, s.transients)
}
