// Package jobstate implements the JobStateRegistrar of spec §4.3: the
// durable per-phase lifecycle recorder persisted under a build record's
// `index.<name>` / `snapshot.<name>` subkeys.
package jobstate

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/mongodb"
)

// State is one of the four lifecycle states named in spec §3.
type State string

const (
	StateStarted  State = "started"
	StateSucceeded State = "succeeded"
	StateFailed   State = "failed"
	StateCanceled State = "canceled"
)

// Record is the per-phase job state record of spec §3.
type Record struct {
	State     State  `bson:"state"`
	Transient bool   `bson:"transient"`
	StartedAt time.Time `bson:"started_at,omitempty"`
	EndedAt   time.Time `bson:"ended_at,omitempty"`
	Err       string `bson:"err,omitempty"`
	Result    bson.M `bson:"result,omitempty"`
}

// maxErrLen is the truncation bound spec §4.1 mandates for recorded errors.
const maxErrLen = 500

// transientsCollection tracks every (build_id, path) pair currently
// recorded as transient, so Prune can find stale "started" records without
// scanning every build document's open-ended nested structure.
const transientsCollection = "job_transients"

// Registrar persists lifecycle state for one (build, path) pair, where
// path is a dotted field like "index.myindex.pre" or "snapshot.s1.snapshot".
type Registrar struct {
	builds     *mongodb.Collection
	transients *mongodb.Collection
	buildID    string
	path       string
}

// New returns a Registrar scoped to one build and dotted path.
func New(builds, transients *mongodb.Collection, buildID, path string) *Registrar {
	return &Registrar{builds: builds, transients: transients, buildID: buildID, path: path}
}

func (r *Registrar) filter() bson.M {
	return bson.M{"_id": r.buildID}
}

// Started writes `{state: started, transient: true, started_at: now}`
// (spec §4.3).
func (r *Registrar) Started(ctx context.Context) error {
	rec := Record{State: StateStarted, Transient: true, StartedAt: time.Now().UTC()}
	if err := r.write(ctx, rec); err != nil {
		return err
	}
	return r.transients.SetFields(ctx, bson.M{"_id": r.transientID()}, bson.M{
		"build_id": r.buildID,
		"path":     r.path,
		"cleared":  false,
	})
}

// Succeeded writes `{state: succeeded, transient: false, ended_at: now,
// result: payload}`, overwriting any prior record for this phase (spec
// §4.3 idempotence: "repeated succeeded on the same phase overwrites").
func (r *Registrar) Succeeded(ctx context.Context, result bson.M) error {
	rec := Record{State: StateSucceeded, Transient: false, EndedAt: time.Now().UTC(), Result: result}
	if err := r.write(ctx, rec); err != nil {
		return err
	}
	return r.clearTransient(ctx)
}

// Failed writes `{state: failed, transient: false, ended_at: now,
// err: err[:500]}`. Every call replaces err and stamps ended_at afresh;
// a repeated Failed on the same phase does not keep the first failure's
// ended_at.
func (r *Registrar) Failed(ctx context.Context, cause error) error {
	msg := cause.Error()
	if len(msg) > maxErrLen {
		msg = msg[:maxErrLen]
	}
	rec := Record{State: StateFailed, Transient: false, EndedAt: time.Now().UTC(), Err: msg}
	if err := r.write(ctx, rec); err != nil {
		return err
	}
	return r.clearTransient(ctx)
}

func (r *Registrar) write(ctx context.Context, rec Record) error {
	fields := bson.M{
		r.path + ".state":     rec.State,
		r.path + ".transient": rec.Transient,
	}
	if !rec.StartedAt.IsZero() {
		fields[r.path+".started_at"] = rec.StartedAt
	}
	if !rec.EndedAt.IsZero() {
		fields[r.path+".ended_at"] = rec.EndedAt
	}
	if rec.Err != "" {
		fields[r.path+".err"] = rec.Err
	}
	if rec.Result != nil {
		fields[r.path+".result"] = rec.Result
	}
	if err := r.builds.SetFields(ctx, r.filter(), fields); err != nil {
		return fmt.Errorf("record %s state: %w", r.path, err)
	}
	return nil
}

func (r *Registrar) clearTransient(ctx context.Context) error {
	return r.transients.SetFields(ctx, bson.M{"_id": r.transientID()}, bson.M{
		"build_id": r.buildID,
		"path":     r.path,
		"cleared":  true,
	})
}

func (r *Registrar) transientID() string {
	return r.buildID + "::" + r.path
}

// Prune rewrites every still-open transient record to `state: canceled,
// transient: false` (spec §4.3: "on process start, rewrite every
// transient:true record to state:canceled" — forward recovery for a
// crash that left a phase stuck at "started").
func Prune(ctx context.Context, builds, transients *mongodb.Collection) error {
	// Iterate every tracked transient entry and cancel the ones never
	// cleared by a Succeeded/Failed call.
	ids, errs := transients.StreamIDs(ctx, bson.M{"cleared": bson.M{"$ne": true}}, 100)
	for id := range ids {
		doc, err := transients.Get(ctx, bson.M{"_id": id})
		if err != nil || doc == nil {
			continue
		}
		buildID, _ := doc["build_id"].(string)
		path, _ := doc["path"].(string)
		if buildID == "" || path == "" {
			continue
		}
		fields := bson.M{
			path + ".state":     StateCanceled,
			path + ".transient": false,
			path + ".ended_at":  time.Now().UTC(),
		}
		if err := builds.SetFields(ctx, bson.M{"_id": buildID}, fields); err != nil {
			return fmt.Errorf("prune %s/%s: %w", buildID, path, err)
		}
		if err := transients.SetFields(ctx, bson.M{"_id": id}, bson.M{"cleared": true}); err != nil {
			return fmt.Errorf("clear transient %s: %w", id, err)
		}
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("stream transients: %w", err)
	}
	return nil
}
