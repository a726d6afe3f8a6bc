package content

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/waveline/waveline-backend/internal/database"
)

// MongoRepository implements Repository on a MongoDB collection. The unique
// slug index makes the store reject the loser of a concurrent create race; the
// duplicate-key error surfaces as ErrSlugTaken.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	// best-effort; index creation is retried at every startup
	_ = database.EnsureUniqueIndex(context.Background(), col, "slug")
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, item *Item) (*Item, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid
	}
	return item, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Item, error) {
	var it Item
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&it); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *MongoRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*Item, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["published"] = true
	}
	var it Item
	if err := r.col.FindOne(ctx, filter).Decode(&it); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *MongoRepository) List(ctx context.Context, publishedOnly bool) ([]*Item, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Item{}
	for cur.Next(ctx) {
		var it Item
		if err := cur.Decode(&it); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, set map[string]any) (*Item, error) {
	doc := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		doc[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var it Item
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": doc}, opts).Decode(&it)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &it, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) SlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
