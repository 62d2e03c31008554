// Package repository provides the MongoDB access layer.
package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoplink/hoplink/internal/config"
	"github.com/hoplink/hoplink/internal/model"
)

// Repository provides access to the application's collections.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and verifies connectivity.
func New(ctx context.Context, cfg *config.Config) (*Repository, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(cfg.MongoConnTimeout).
		SetMinPoolSize(cfg.MongoMinPoolSize).
		SetMaxPoolSize(cfg.MongoMaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Repository{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
	}, nil
}

// Ping checks store connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects from the store.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// links returns the links collection handle.
func (r *Repository) links() *mongo.Collection {
	return r.db.Collection(model.Link{}.CollectionName())
}

// clickEvents returns the click events collection handle.
func (r *Repository) clickEvents() *mongo.Collection {
	return r.db.Collection(model.ClickEvent{}.CollectionName())
}

// EnsureIndexes creates the indexes the services rely on:
// a partial unique index on shortCode among non-deleted links, a TTL index
// on expiresAt, and a compound owner listing index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	linkIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "shortCode", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "isDeleted", Value: false}}),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	if _, err := r.links().Indexes().CreateMany(ctx, linkIndexes); err != nil {
		return fmt.Errorf("failed to create link indexes: %w", err)
	}

	clickIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "shortCode", Value: 1}, {Key: "clickedAt", Value: -1}},
		},
	}

	if _, err := r.clickEvents().Indexes().CreateMany(ctx, clickIndexes); err != nil {
		return fmt.Errorf("failed to create click event indexes: %w", err)
	}

	return nil
}
