// Package mongodb wraps the document-store collaborator described in
// spec §6: open/connect, count, stream IDs in batches, scan by ID set,
// single-document reads, and upserting $set updates. It is intentionally
// schema-agnostic — callers pass and
// receive bson.M so the core never depends on a fixed document shape.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hub-search/indexcore/internal/config"
)

// Client wraps a MongoDB connection. One Client may be shared by many
// Collection handles; the worker-side IndexingTask reuses the Indexer's
// Collection rather than opening a connection of its own.
type Client struct {
	raw *mongo.Client
}

// Connect opens a source-store connection, mirroring the teacher's
// ApplyURI/pool-size/timeout configuration.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(uint64(cfg.MongoMaxPoolSize)).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(30 * time.Second)

	raw, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := raw.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Client{raw: raw}, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.raw.Disconnect(ctx)
}

// Collection returns a handle to a specific database/collection pair.
func (c *Client) Collection(db, name string) *Collection {
	return &Collection{raw: c.raw.Database(db).Collection(name)}
}

// Collection wraps a *mongo.Collection with the operations the indexing
// pipeline needs: count, stream IDs, scan by ID set, get one document, and
// set fields.
type Collection struct {
	raw *mongo.Collection
}

// Count returns the number of documents matching filter. A nil filter
// counts the whole collection.
func (c *Collection) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return c.raw.CountDocuments(ctx, filter)
}

// StreamIDs yields every document's _id (as a string) matching filter, in
// no guaranteed order, for use as the default ID provider in
// Indexer.doIndex (§4.1.2 step 1) when the caller did not supply ids.
func (c *Collection) StreamIDs(ctx context.Context, filter bson.M, batchSize int) (<-chan string, <-chan error) {
	ids := make(chan string, batchSize)
	errs := make(chan error, 1)

	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetBatchSize(int32(batchSize)).
		SetNoCursorTimeout(true)

	cursor, err := c.raw.Find(ctx, filter, opts)
	if err != nil {
		errs <- fmt.Errorf("find ids: %w", err)
		close(ids)
		close(errs)
		return ids, errs
	}

	go func() {
		defer close(ids)
		defer close(errs)
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var row struct {
				ID any `bson:"_id"`
			}
			if err := cursor.Decode(&row); err != nil {
				errs <- fmt.Errorf("decode id: %w", err)
				return
			}
			select {
			case ids <- idToString(row.ID):
			case <-ctx.Done():
				return
			}
		}
		if err := cursor.Err(); err != nil {
			errs <- fmt.Errorf("cursor: %w", err)
		}
	}()

	return ids, errs
}

// FindByIDs scans the documents whose _id is in ids (order unspecified),
// per spec §4.1.4 step 2.
func (c *Collection) FindByIDs(ctx context.Context, ids []string) (*mongo.Cursor, error) {
	oids := make([]any, len(ids))
	for i, id := range ids {
		oids[i] = idFromString(id)
	}
	return c.raw.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

// Get reads a single document by an arbitrary filter, used for build-record
// and job-state lookups.
func (c *Collection) Get(ctx context.Context, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := c.raw.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return doc, err
}

// SetFields applies a $set of the given dotted-path fields to the document
// matched by filter, upserting if absent. This is the mechanism the job
// state registrar (§4.3) and build-record mutation path use.
func (c *Collection) SetFields(ctx context.Context, filter bson.M, fields bson.M) error {
	_, err := c.raw.UpdateOne(ctx, filter, bson.M{"$set": fields}, options.Update().SetUpsert(true))
	return err
}

func idToString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func idFromString(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
