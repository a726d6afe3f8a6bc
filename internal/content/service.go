package content

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline/waveline-backend/internal/patch"
	"github.com/waveline/waveline-backend/internal/slug"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrEmptySlug     = errors.New("slug/title produced an empty slug")
)

// Service composes the slug normalizer, the uniqueness resolver and the patch
// builder on top of a Repository. One Service instance per resource type.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Create validates the raw body, derives a unique slug from the explicit slug
// field or else the title, and persists a new item.
func (s *Service) Create(ctx context.Context, raw map[string]any) (*Item, error) {
	title := ""
	if v, ok := raw["title"].(string); ok {
		title = strings.TrimSpace(v)
	}
	if title == "" {
		return nil, ErrTitleRequired
	}

	baseInput := title
	if v, ok := raw["slug"].(string); ok && strings.TrimSpace(v) != "" {
		baseInput = v
	}
	base := slug.Normalize(baseInput)
	if base == "" {
		return nil, ErrEmptySlug
	}
	unique, err := slug.EnsureUnique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugTaken(ctx, candidate, primitive.NilObjectID)
	})
	if err != nil {
		return nil, err
	}

	fields := patch.Build(raw, Fields)
	item := &Item{
		Title:  title,
		Slug:   unique,
		Tags:   []string{},
		Blocks: []patch.Block{},
	}
	if v, ok := fields["excerpt"].(string); ok {
		item.Excerpt = v
	}
	if v, ok := fields["image"].(string); ok {
		item.Image = v
	}
	if v, ok := fields["tags"].([]string); ok {
		item.Tags = v
	}
	if v, ok := fields["content_blocks"].([]patch.Block); ok {
		item.Blocks = v
	}
	if v, ok := fields["published"].(bool); ok {
		item.Published = v
	}
	return s.repo.Insert(ctx, item)
}

// Update loads the item, builds a whitelisted patch from the raw body and
// applies it. A supplied slug that differs from the current one is
// re-normalized and re-checked for uniqueness excluding the item itself.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, raw map[string]any) (*Item, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := patch.Build(raw, Fields)
	// an empty title never overwrites the existing one
	if t, ok := set["title"].(string); ok && t == "" {
		delete(set, "title")
	}

	if v, ok := raw["slug"].(string); ok && strings.TrimSpace(v) != "" {
		ns := slug.Normalize(v)
		if ns != "" && ns != existing.Slug {
			taken, err := s.repo.SlugTaken(ctx, ns, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrSlugTaken
			}
			set["slug"] = ns
		}
	}

	return s.repo.Update(ctx, id, set)
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*Item, error) {
	return s.repo.GetBySlug(ctx, slug, publishedOnly)
}

func (s *Service) List(ctx context.Context, publishedOnly bool) ([]*Item, error) {
	return s.repo.List(ctx, publishedOnly)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}
