package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline/waveline-backend/internal/patch"
)

// MemoryRepository is an in-memory Repository used for unit tests and for
// running the service without a MongoDB instance.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]*Item
	seq   map[primitive.ObjectID]int
	next  int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[primitive.ObjectID]*Item),
		seq:   make(map[primitive.ObjectID]int),
	}
}

func (r *MemoryRepository) Insert(_ context.Context, item *Item) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Slug == item.Slug {
			return nil, ErrSlugTaken
		}
	}
	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = clone(item)
	r.next++
	r.seq[item.ID] = r.next
	return clone(item), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if it, ok := r.items[id]; ok {
		return clone(it), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetBySlug(_ context.Context, slug string, publishedOnly bool) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.Slug == slug && (!publishedOnly || it.Published) {
			return clone(it), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context, publishedOnly bool) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Item{}
	for _, it := range r.items {
		if !publishedOnly || it.Published {
			out = append(out, clone(it))
		}
	}
	// newest first; insertion order breaks creation-time ties
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return r.seq[out[i].ID] > r.seq[out[j].ID]
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id primitive.ObjectID, set map[string]any) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if slug, ok := set["slug"].(string); ok {
		for oid, other := range r.items {
			if oid != id && other.Slug == slug {
				return nil, ErrSlugTaken
			}
		}
	}
	applySet(it, set)
	it.UpdatedAt = time.Now().UTC()
	return clone(it), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	delete(r.seq, id)
	return nil
}

func (r *MemoryRepository) SlugTaken(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, it := range r.items {
		if it.Slug == slug && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func clone(it *Item) *Item {
	cp := *it
	cp.Tags = append([]string(nil), it.Tags...)
	cp.Blocks = append([]patch.Block(nil), it.Blocks...)
	return &cp
}

func applySet(it *Item, set map[string]any) {
	for k, v := range set {
		switch k {
		case "title":
			if s, ok := v.(string); ok {
				it.Title = s
			}
		case "slug":
			if s, ok := v.(string); ok {
				it.Slug = s
			}
		case "excerpt":
			if s, ok := v.(string); ok {
				it.Excerpt = s
			}
		case "image":
			if s, ok := v.(string); ok {
				it.Image = s
			}
		case "tags":
			if tags, ok := v.([]string); ok {
				it.Tags = append([]string(nil), tags...)
			}
		case "content_blocks":
			if blocks, ok := v.([]patch.Block); ok {
				it.Blocks = append([]patch.Block(nil), blocks...)
			}
		case "published":
			if b, ok := v.(bool); ok {
				it.Published = b
			}
		}
	}
}
