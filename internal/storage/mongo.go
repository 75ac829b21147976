package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newstrace/internal/types"
)

// MongoArchive stores one document per completed job, keyed by job ID, so
// past runs for an outlet stay queryable after the exported files are
// overwritten by the next job.
type MongoArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoArchive connects to MongoDB and verifies it with a ping.
func NewMongoArchive(uri, database, collection string, logger *slog.Logger) (*MongoArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoArchive{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_archive"),
	}, nil
}

func (a *MongoArchive) Name() string { return "mongodb" }

func (a *MongoArchive) SaveResult(ctx context.Context, jobID string, result *types.ScrapeResult, graph *types.NetworkGraph) error {
	doc := bson.M{
		"job_id":     jobID,
		"outlet":     result.OutletName,
		"website":    result.Website,
		"reason":     result.Reason,
		"profiles":   result.Profiles,
		"graph":      graph,
		"created_at": time.Now().UTC(),
	}
	if result.Stats != nil {
		doc["stats"] = result.Stats
	}

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := a.collection.ReplaceOne(opCtx,
		bson.M{"job_id": jobID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert: %w", err)
	}

	a.logger.Debug("job archived", "job_id", jobID, "profiles", len(result.Profiles))
	return nil
}

func (a *MongoArchive) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.client.Disconnect(ctx)
}
