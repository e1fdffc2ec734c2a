package repository

import (
	"context"
	"fmt"

	"github.com/taskflowhq/taskflow/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	projectCollection = "projects"
	taskCollection    = "tasks"
)

// Connect establishes the document-store connection and verifies it with
// a ping. The driver maintains its own connection pool; callers connect
// once and reuse the handle.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client.Database(cfg.Database), nil
}

// EnsureIndexes creates the secondary indexes both collections are
// queried through.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	projectIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "teamMembers", Value: 1}}},
	}
	if _, err := db.Collection(projectCollection).Indexes().CreateMany(ctx, projectIndexes); err != nil {
		return fmt.Errorf("failed to create project indexes: %w", err)
	}

	taskIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assigneeId", Value: 1}}},
		{Keys: bson.D{{Key: "reporterId", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	}
	if _, err := db.Collection(taskCollection).Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	return nil
}
