package content

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("content item not found")
	ErrSlugTaken = errors.New("slug already exists")
)

// Repository defines persistence operations for one resource type's items.
type Repository interface {
	Insert(ctx context.Context, item *Item) (*Item, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Item, error)
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*Item, error)
	// List returns all items, newest first, optionally only published ones.
	List(ctx context.Context, publishedOnly bool) ([]*Item, error)
	// Update applies a $set-style patch and returns the updated item.
	Update(ctx context.Context, id primitive.ObjectID, set map[string]any) (*Item, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// SlugTaken probes whether slug is used by an item other than exclude
	// (pass primitive.NilObjectID to consider every item).
	SlugTaken(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
}
