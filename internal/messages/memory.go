package messages

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is the in-memory Repository for tests and Mongo-less runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]*Message
	order []primitive.ObjectID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[primitive.ObjectID]*Message)}
}

func (r *MemoryRepository) Insert(_ context.Context, m *Message) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	m.Read = false
	cp := *m
	r.items[m.ID] = &cp
	r.order = append(r.order, m.ID)
	return m, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Message{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if m, ok := r.items[r.order[i]]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) SetRead(_ context.Context, id primitive.ObjectID, read bool) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Read = read
	cp := *m
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

func (r *MemoryRepository) CountUnread(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, m := range r.items {
		if !m.Read {
			n++
		}
	}
	return n, nil
}
