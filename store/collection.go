package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a document does not exist or is hidden by the
// collection's default scope.
var ErrNotFound = errors.New("store: document not found")

// IsDuplicateKey reports whether err is a unique-index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Collection wraps a mongo collection for one resource type. Every read
// merges the default scope filter (e.g. hiding secret tours or inactive
// users); callers that must see everything use the Unscoped variants.
type Collection[T any] struct {
	coll  *mongo.Collection
	scope bson.M
}

func NewCollection[T any](coll *mongo.Collection, scope bson.M) *Collection[T] {
	return &Collection[T]{coll: coll, scope: scope}
}

// ApplyScope merges the default scope into filter. Scope keys never override
// caller-provided keys.
func (c *Collection[T]) ApplyScope(filter bson.M) bson.M {
	if len(c.scope) == 0 {
		return filter
	}
	merged := bson.M{}
	for k, v := range c.scope {
		merged[k] = v
	}
	for k, v := range filter {
		merged[k] = v
	}
	return merged
}

func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.findOne(ctx, c.ApplyScope(bson.M{"_id": id}))
}

// FindByIDUnscoped bypasses the default scope for internal reads.
func (c *Collection[T]) FindByIDUnscoped(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *Collection[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindAll runs the composed feature query. base carries route-level
// pre-scoping, e.g. {"tour": tourID} for reviews nested under a tour.
func (c *Collection[T]) FindAll(ctx context.Context, features *Features, base bson.M) ([]T, error) {
	filter := c.ApplyScope(bson.M{})
	for k, v := range base {
		filter[k] = v
	}
	if features != nil {
		for k, v := range features.Filter {
			filter[k] = v
		}
	}
	var opts *options.FindOptions
	if features != nil {
		opts = features.Opts
	}
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateByID applies a partial $set update and returns the updated document.
func (c *Collection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, updates bson.M) (*T, error) {
	var doc T
	err := c.coll.FindOneAndUpdate(ctx,
		c.ApplyScope(bson.M{"_id": id}),
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteByID removes the document and returns it, so callers can run
// post-delete bookkeeping (review deletion recomputes tour ratings).
func (c *Collection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := c.coll.FindOneAndDelete(ctx, c.ApplyScope(bson.M{"_id": id})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	return c.coll.CountDocuments(ctx, c.ApplyScope(filter))
}
