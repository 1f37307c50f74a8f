// Package publish copies an extract into MongoDB.
//
// Every type becomes one document in the types collection and every recipe one
// document in the blueprints collection, keyed by type id. Documents carry the
// run id of the publish that wrote them; documents left over from earlier
// runs are removed once the new run is written, so the collections always
// mirror the latest extract. Each run is recorded in the runs collection.
package publish

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/shipyard/pkg/buildinfo"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/retry"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Collection names.
const (
	TypesCollection      = "types"
	BlueprintsCollection = "blueprints"
	RunsCollection       = "runs"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "shipyard"

// batchSize bounds the number of writes per BulkWrite call.
const batchSize = 1000

// Collection is the subset of *mongo.Collection the publisher uses.
type Collection interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// TypeDoc is a document of the types collection.
type TypeDoc struct {
	ID        sde.TypeID `bson:"_id"`
	Name      *string    `bson:"name"`
	RunID     string     `bson:"run_id"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// InputDoc is one recipe input.
type InputDoc struct {
	Quantity int64      `bson:"quantity"`
	TypeID   sde.TypeID `bson:"type_id"`
}

// BlueprintDoc is a document of the blueprints collection, keyed by product.
type BlueprintDoc struct {
	ID        sde.TypeID `bson:"_id"`
	Output    int64      `bson:"output"`
	Inputs    []InputDoc `bson:"inputs"`
	Recipe    sde.TypeID `bson:"recipe"`
	RunID     string     `bson:"run_id"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// RunDoc records one publish.
type RunDoc struct {
	ID         string    `bson:"_id"`
	Version    string    `bson:"version"`
	Types      int       `bson:"types"`
	Blueprints int       `bson:"blueprints"`
	Removed    int64     `bson:"removed"`
	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at"`
}

// Report summarizes a publish.
type Report struct {
	RunID      string
	Upserted   int64
	Modified   int64
	Removed    int64
	Types      int
	Blueprints int
}

// Publisher writes extracts to three collections.
type Publisher struct {
	types      Collection
	blueprints Collection
	runs       Collection
	client     *mongo.Client
	now        func() time.Time
}

// NewPublisher creates a Publisher over the given collections.
func NewPublisher(types, blueprints, runs Collection) *Publisher {
	return &Publisher{types: types, blueprints: blueprints, runs: runs, now: time.Now}
}

// Mongo connects to the MongoDB deployment at uri and returns a Publisher
// writing to database. Close releases the connection.
func Mongo(ctx context.Context, uri, database string) (*Publisher, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	err = retry.Backoff(ctx, func() error {
		return retry.Transient(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping mongodb")
	}

	db := client.Database(database)
	p := NewPublisher(db.Collection(TypesCollection), db.Collection(BlueprintsCollection), db.Collection(RunsCollection))
	p.client = client
	return p, nil
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// Publish upserts every type and recipe of e stamped with runID, then removes
// documents from other runs. runID must be a UUID.
func (p *Publisher) Publish(ctx context.Context, e *export.Export, runID string) (*Report, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid run id %q", runID)
	}
	started := p.now().UTC()
	report := &Report{RunID: runID, Types: len(e.TypeIDs), Blueprints: len(e.Blueprints)}

	typeModels := make([]mongo.WriteModel, 0, len(e.TypeIDs))
	for _, id := range sortedKeys(e.TypeIDs) {
		doc := TypeDoc{ID: id, Name: e.TypeIDs[id].Name, RunID: runID, UpdatedAt: started}
		typeModels = append(typeModels, upsert(id, doc))
	}
	bpModels := make([]mongo.WriteModel, 0, len(e.Blueprints))
	for _, id := range sortedKeys(e.Blueprints) {
		bp := e.Blueprints[id]
		inputs := make([]InputDoc, len(bp.Inputs))
		for i, in := range bp.Inputs {
			inputs[i] = InputDoc{Quantity: in.Quantity(), TypeID: in.TypeID()}
		}
		doc := BlueprintDoc{ID: id, Output: bp.Output, Inputs: inputs, Recipe: bp.Recipe, RunID: runID, UpdatedAt: started}
		bpModels = append(bpModels, upsert(id, doc))
	}

	for _, step := range []struct {
		name   string
		coll   Collection
		models []mongo.WriteModel
	}{
		{TypesCollection, p.types, typeModels},
		{BlueprintsCollection, p.blueprints, bpModels},
	} {
		if err := p.write(ctx, step.coll, step.models, report); err != nil {
			return nil, fmt.Errorf("write %s: %w", step.name, err)
		}
		res, err := step.coll.DeleteMany(ctx, bson.M{"run_id": bson.M{"$ne": runID}})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "prune %s", step.name)
		}
		report.Removed += res.DeletedCount
	}

	run := RunDoc{
		ID:         runID,
		Version:    buildinfo.Version,
		Types:      report.Types,
		Blueprints: report.Blueprints,
		Removed:    report.Removed,
		StartedAt:  started,
		FinishedAt: p.now().UTC(),
	}
	if _, err := p.runs.InsertOne(ctx, run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "record run")
	}
	return report, nil
}

func (p *Publisher) write(ctx context.Context, coll Collection, models []mongo.WriteModel, report *Report) error {
	for start := 0; start < len(models); start += batchSize {
		end := min(start+batchSize, len(models))
		res, err := coll.BulkWrite(ctx, models[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreQuery, err, "bulk write")
		}
		report.Upserted += res.UpsertedCount
		report.Modified += res.ModifiedCount
	}
	return nil
}

// Close disconnects from MongoDB. It is a no-op for publishers built with
// NewPublisher.
func (p *Publisher) Close(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Disconnect(ctx)
}

func upsert(id sde.TypeID, doc any) mongo.WriteModel {
	return mongo.NewReplaceOneModel().
		SetFilter(bson.M{"_id": id}).
		SetReplacement(doc).
		SetUpsert(true)
}

func sortedKeys[V any](m map[sde.TypeID]V) []sde.TypeID {
	ids := make([]sde.TypeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
