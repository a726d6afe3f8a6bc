package messages

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/waveline/waveline-backend/pkg/logger"
)

// MongoRepository implements Repository on a Mongo collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, m *Message) (*Message, error) {
	m.CreatedAt = time.Now().UTC()
	m.Read = false
	res, err := r.col.InsertOne(ctx, m)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return m, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Message{}
	for cur.Next(ctx) {
		var m Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *MongoRepository) SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m Message
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": read}}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
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

func (r *MongoRepository) CountUnread(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"read": false})
}

// WatchCollection tails the collection's change stream and refreshes the broker
// on every event, so mutations done outside this process still reach
// subscribers. Retries with backoff until ctx is canceled; deployments without
// change-stream support (standalone mongod) just run on service-local
// notifications.
func WatchCollection(ctx context.Context, col *mongo.Collection, broker *Broker) {
	backoff := time.Second
	for {
		cs, err := col.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			logger.Warnf("messages: change stream unavailable: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < time.Minute {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		for cs.Next(ctx) {
			broker.Notify(ctx)
		}
		_ = cs.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		logger.Warnf("messages: change stream ended: %v", cs.Err())
	}
}
