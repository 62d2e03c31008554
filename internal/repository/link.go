package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/model"
)

// ErrCodeTaken reports a duplicate-key collision on insert. The allocator
// treats it as a retryable collision; the custom-alias path maps it to
// CUSTOM_ALIAS_TAKEN.
var ErrCodeTaken = errors.New("short code already taken")

// projectionFields restricts hot-path reads to the four projection fields.
var projectionFields = bson.D{
	{Key: "originalUrl", Value: 1},
	{Key: "isActive", Value: 1},
	{Key: "ownerId", Value: 1},
	{Key: "expiresAt", Value: 1},
	{Key: "_id", Value: 0},
}

// FindByShortCode returns the hot-path projection for a non-deleted link.
// Dead links are distinguished in-memory so callers can surface different
// error kinds: URL_NOT_FOUND, URL_INACTIVE, URL_EXPIRED.
func (r *Repository) FindByShortCode(ctx context.Context, shortCode string) (*model.LinkProjection, error) {
	filter := bson.M{
		"shortCode": shortCode,
		"isDeleted": false,
	}

	var proj model.LinkProjection
	err := r.links().
		FindOne(ctx, filter, options.FindOne().SetProjection(projectionFields)).
		Decode(&proj)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrURLNotFound.WithContext("shortCode", shortCode)
		}
		return nil, apperr.ErrDatabase.Wrap(err).
			WithContext("shortCode", shortCode).
			WithContext("operation", "FindByShortCode")
	}

	if !proj.IsActive {
		return nil, apperr.ErrURLInactive.WithContext("shortCode", shortCode)
	}

	if proj.ExpiresAt != nil && proj.ExpiresAt.Before(time.Now()) {
		return nil, apperr.ErrURLExpired.WithContext("shortCode", shortCode)
	}

	return &proj, nil
}

// IncrementClickCount atomically bumps clickCount and touches updatedAt.
// A zero-match update means the code does not exist (or is deleted).
func (r *Repository) IncrementClickCount(ctx context.Context, shortCode string) error {
	filter := bson.M{
		"shortCode": shortCode,
		"isDeleted": false,
	}
	update := bson.M{
		"$inc": bson.M{"clickCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.links().UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.ErrDatabase.Wrap(err).
			WithContext("shortCode", shortCode).
			WithContext("operation", "IncrementClickCount")
	}

	if result.MatchedCount == 0 {
		return apperr.ErrURLNotFound.WithContext("shortCode", shortCode)
	}

	return nil
}

// Exists reports whether a non-deleted link holds the short code.
// The allocator uses it as a cheap pre-check; the insert's unique index
// remains the authority.
func (r *Repository) Exists(ctx context.Context, shortCode string) (bool, error) {
	filter := bson.M{
		"shortCode": shortCode,
		"isDeleted": false,
	}

	n, err := r.links().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.ErrDatabase.Wrap(err).
			WithContext("shortCode", shortCode).
			WithContext("operation", "Exists")
	}

	return n > 0, nil
}

// Insert persists a new link. Timestamps are set by the store layer.
// A duplicate-key violation on shortCode surfaces as ErrCodeTaken.
func (r *Repository) Insert(ctx context.Context, link *model.Link) error {
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	if _, err := r.links().InsertOne(ctx, link); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCodeTaken
		}
		return apperr.ErrDatabase.Wrap(err).
			WithContext("shortCode", link.ShortCode).
			WithContext("operation", "Insert")
	}

	return nil
}
