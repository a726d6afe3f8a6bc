// Package content implements the generic content item behind the blog,
// case-study, portfolio and podcast resources: one model, one repository
// contract, one service; each resource type gets its own collection.
package content

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline/waveline-backend/internal/patch"
)

// Item is one content record. The slug is unique per resource type (per
// collection); tags keep caller order and may repeat.
type Item struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Slug      string             `json:"slug" bson:"slug"`
	Excerpt   string             `json:"excerpt" bson:"excerpt"`
	Image     string             `json:"image" bson:"image"`
	Tags      []string           `json:"tags" bson:"tags"`
	Blocks    []patch.Block      `json:"content_blocks" bson:"content_blocks"`
	Published bool               `json:"published" bson:"published"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Fields declares which body fields a client may write and how each one is
// checked. Slug changes are handled separately because they need a uniqueness
// probe; nothing outside this map ever reaches the store.
var Fields = patch.Schema{
	"title":          patch.TrimmedString,
	"excerpt":        patch.String,
	"image":          patch.ImageRef,
	"tags":           patch.Tags,
	"content_blocks": patch.Blocks,
	"published":      patch.Bool,
}
