package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// findPage returns one page of documents matching filter plus the total match count.
// A limit <= 0 returns every match.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, limit, offset int) ([]T, int, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit)).SetSkip(int64(offset))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

// findOneAndSet applies update to the single document matching filter and decodes the result.
func findOneAndSet[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, update bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	out := new(T)
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
