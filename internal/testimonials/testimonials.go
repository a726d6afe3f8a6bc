// Package testimonials manages customer quotes shown on the public site.
// Unlike content items they have no slug; identity is the store id only.
package testimonials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/waveline/waveline-backend/internal/patch"
)

var (
	ErrNotFound     = errors.New("testimonial not found")
	ErrNameRequired = errors.New("name is required")
	ErrTextRequired = errors.New("text is required")
)

type Testimonial struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Text        string             `json:"text" bson:"text"`
	Image       string             `json:"image" bson:"image"`
	LinkEnabled bool               `json:"linkEnabled" bson:"linkEnabled"`
	LinkURL     string             `json:"linkUrl" bson:"linkUrl"`
	Published   bool               `json:"published" bson:"published"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Fields is the write whitelist for testimonial bodies.
var Fields = patch.Schema{
	"name":        patch.TrimmedString,
	"text":        patch.String,
	"image":       patch.ImageRef,
	"linkEnabled": patch.Bool,
	"linkUrl":     patch.TrimmedString,
	"published":   patch.Bool,
}

type Repository interface {
	Insert(ctx context.Context, tm *Testimonial) (*Testimonial, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Testimonial, error)
	List(ctx context.Context, publishedOnly bool) ([]*Testimonial, error)
	Update(ctx context.Context, id primitive.ObjectID, set map[string]any) (*Testimonial, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Service layers body validation and whitelisting over a Repository.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

func (s *Service) Create(ctx context.Context, raw map[string]any) (*Testimonial, error) {
	fields := patch.Build(raw, Fields)
	name, _ := fields["name"].(string)
	if name == "" {
		return nil, ErrNameRequired
	}
	text, _ := fields["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}
	tm := &Testimonial{Name: name, Text: text}
	if v, ok := fields["image"].(string); ok {
		tm.Image = v
	}
	if v, ok := fields["linkEnabled"].(bool); ok {
		tm.LinkEnabled = v
	}
	if v, ok := fields["linkUrl"].(string); ok {
		tm.LinkURL = v
	}
	if v, ok := fields["published"].(bool); ok {
		tm.Published = v
	}
	return s.repo.Insert(ctx, tm)
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, raw map[string]any) (*Testimonial, error) {
	set := patch.Build(raw, Fields)
	if n, ok := set["name"].(string); ok && n == "" {
		delete(set, "name")
	}
	return s.repo.Update(ctx, id, set)
}

func (s *Service) List(ctx context.Context, publishedOnly bool) ([]*Testimonial, error) {
	return s.repo.List(ctx, publishedOnly)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// MongoRepository implements Repository on a Mongo collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, tm *Testimonial) (*Testimonial, error) {
	now := time.Now().UTC()
	tm.CreatedAt = now
	tm.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, tm)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		tm.ID = oid
	}
	return tm, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Testimonial, error) {
	var tm Testimonial
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&tm); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tm, nil
}

func (r *MongoRepository) List(ctx context.Context, publishedOnly bool) ([]*Testimonial, error) {
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
	out := []*Testimonial{}
	for cur.Next(ctx) {
		var tm Testimonial
		if err := cur.Decode(&tm); err != nil {
			return nil, err
		}
		out = append(out, &tm)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, set map[string]any) (*Testimonial, error) {
	doc := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		doc[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var tm Testimonial
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": doc}, opts).Decode(&tm)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tm, nil
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

// MemoryRepository backs tests and Mongo-less runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]*Testimonial
	order []primitive.ObjectID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[primitive.ObjectID]*Testimonial)}
}

func (r *MemoryRepository) Insert(_ context.Context, tm *Testimonial) (*Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	tm.ID = primitive.NewObjectID()
	tm.CreatedAt = now
	tm.UpdatedAt = now
	cp := *tm
	r.items[tm.ID] = &cp
	r.order = append(r.order, tm.ID)
	return tm, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tm, ok := r.items[id]; ok {
		cp := *tm
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context, publishedOnly bool) ([]*Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Testimonial{}
	// newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		tm := r.items[r.order[i]]
		if tm == nil || (publishedOnly && !tm.Published) {
			continue
		}
		cp := *tm
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id primitive.ObjectID, set map[string]any) (*Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tm, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				tm.Name = s
			}
		case "text":
			if s, ok := v.(string); ok {
				tm.Text = s
			}
		case "image":
			if s, ok := v.(string); ok {
				tm.Image = s
			}
		case "linkEnabled":
			if b, ok := v.(bool); ok {
				tm.LinkEnabled = b
			}
		case "linkUrl":
			if s, ok := v.(string); ok {
				tm.LinkURL = s
			}
		case "published":
			if b, ok := v.(bool); ok {
				tm.Published = b
			}
		}
	}
	tm.UpdatedAt = time.Now().UTC()
	cp := *tm
	return &cp, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
