// Package settings stores boolean feature flags as key/value singletons,
// upserted by key (e.g. whether testimonials show up in navigation).
package settings

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/waveline/waveline-backend/internal/database"
)

// Setting is one feature flag.
type Setting struct {
	Key       string    `json:"key" bson:"key"`
	Value     bool      `json:"value" bson:"value"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// A flag that was never written reads as enabled.
const defaultValue = true

// Repository provides flag persistence.
type Repository interface {
	// Get returns the flag's value, or the default when the key was never set.
	Get(ctx context.Context, key string) (bool, error)
	GetAll(ctx context.Context) (map[string]bool, error)
	// Upsert atomically creates or replaces the flag.
	Upsert(ctx context.Context, key string, value bool) (*Setting, error)
}

// MongoRepository implements Repository on a Mongo collection with a unique
// key index; upserts go through FindOneAndUpdate so concurrent writers cannot
// duplicate a key.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	_ = database.EnsureUniqueIndex(context.Background(), col, "key")
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Get(ctx context.Context, key string) (bool, error) {
	var s Setting
	if err := r.col.FindOne(ctx, bson.M{"key": key}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return defaultValue, nil
		}
		return false, err
	}
	return s.Value, nil
}

func (r *MongoRepository) GetAll(ctx context.Context) (map[string]bool, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[string]bool{}
	for cur.Next(ctx) {
		var s Setting
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out[s.Key] = s.Value
	}
	return out, cur.Err()
}

func (r *MongoRepository) Upsert(ctx context.Context, key string, value bool) (*Setting, error) {
	update := bson.M{"$set": bson.M{"value": value, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var s Setting
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"key": key}, update, opts).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MemoryRepository is the in-memory Repository for tests and Mongo-less runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{flags: make(map[string]bool)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.flags[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (r *MemoryRepository) GetAll(_ context.Context) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, key string, value bool) (*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[key] = value
	return &Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}, nil
}
