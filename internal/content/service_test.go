package content

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func body(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestCreateDerivesSlugFromTitle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	it, err := svc.Create(ctx, body(t, `{"title": "My First Post"}`))
	require.NoError(t, err)
	require.Equal(t, "my-first-post", it.Slug)
	require.Equal(t, "My First Post", it.Title)
	require.False(t, it.Published)
	require.NotEmpty(t, it.ID)
	require.False(t, it.CreatedAt.IsZero())
}

func TestCreateSameTitleGetsSuffix(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.Create(ctx, body(t, `{"title": "My First Post"}`))
	require.NoError(t, err)
	second, err := svc.Create(ctx, body(t, `{"title": "My First Post"}`))
	require.NoError(t, err)
	third, err := svc.Create(ctx, body(t, `{"title": "My First Post"}`))
	require.NoError(t, err)

	require.Equal(t, "my-first-post", first.Slug)
	require.Equal(t, "my-first-post-2", second.Slug)
	require.Equal(t, "my-first-post-3", third.Slug)
}

func TestCreateExplicitSlugWins(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	it, err := svc.Create(context.Background(), body(t, `{"title": "A Title", "slug": "Custom Slug!"}`))
	require.NoError(t, err)
	require.Equal(t, "custom-slug", it.Slug)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, body(t, `{"excerpt": "no title"}`))
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, body(t, `{"title": "   "}`))
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, body(t, `{"title": "??!!"}`))
	require.ErrorIs(t, err, ErrEmptySlug)
}

func TestCreateWhitelistsFields(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	it, err := svc.Create(context.Background(), body(t, `{
		"title": "Post",
		"excerpt": "summary",
		"image": "https://cdn.example.com/x.png",
		"tags": "UI, UX",
		"content_blocks": [{"id": "b1", "kind": "heading", "text": "Hi"}],
		"published": true,
		"evil": "ignored"
	}`))
	require.NoError(t, err)
	require.Equal(t, "summary", it.Excerpt)
	require.Equal(t, "https://cdn.example.com/x.png", it.Image)
	require.Equal(t, []string{"UI", "UX"}, it.Tags)
	require.Len(t, it.Blocks, 1)
	require.True(t, it.Published)
}

func TestUpdateNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Update(context.Background(), primitive.NewObjectID(), body(t, `{"published": true}`))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartialPatch(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	it, err := svc.Create(ctx, body(t, `{"title": "Draft", "excerpt": "keep me"}`))
	require.NoError(t, err)

	got, err := svc.Update(ctx, it.ID, body(t, `{"published": true}`))
	require.NoError(t, err)
	require.True(t, got.Published)
	require.Equal(t, "keep me", got.Excerpt, "untouched fields stay unchanged")
	require.Equal(t, "draft", got.Slug)
}

func TestUpdateEmptyTitleIgnored(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	it, err := svc.Create(ctx, body(t, `{"title": "Original"}`))
	require.NoError(t, err)

	got, err := svc.Update(ctx, it.ID, body(t, `{"title": "   "}`))
	require.NoError(t, err)
	require.Equal(t, "Original", got.Title)
}

func TestUpdateSlugConflict(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	_, err := svc.Create(ctx, body(t, `{"title": "First"}`))
	require.NoError(t, err)
	second, err := svc.Create(ctx, body(t, `{"title": "Second"}`))
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, body(t, `{"slug": "First"}`))
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdateSlugRenormalized(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	it, err := svc.Create(ctx, body(t, `{"title": "Post"}`))
	require.NoError(t, err)

	got, err := svc.Update(ctx, it.ID, body(t, `{"slug": "  New Slug Here!  "}`))
	require.NoError(t, err)
	require.Equal(t, "new-slug-here", got.Slug)

	// same slug again is a no-op, not a conflict with itself
	got, err = svc.Update(ctx, it.ID, body(t, `{"slug": "new-slug-here"}`))
	require.NoError(t, err)
	require.Equal(t, "new-slug-here", got.Slug)
}

func TestListPublishedFilter(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	draft, err := svc.Create(ctx, body(t, `{"title": "Draft"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, body(t, `{"title": "Live", "published": true}`))
	require.NoError(t, err)

	published, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "live", published[0].Slug)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	// publishing the draft makes it visible to the filtered list
	_, err = svc.Update(ctx, draft.ID, body(t, `{"published": true}`))
	require.NoError(t, err)
	published, err = svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, published, 2)
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(ctx, body(t, `{"title": "`+title+`"}`))
		require.NoError(t, err)
	}
	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "three", all[0].Slug)
	require.Equal(t, "one", all[2].Slug)
}

func TestDelete(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	it, err := svc.Create(ctx, body(t, `{"title": "Gone Soon"}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, it.ID))
	require.ErrorIs(t, svc.Delete(ctx, it.ID), ErrNotFound)
	_, err = svc.GetByID(ctx, it.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetBySlug(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	_, err := svc.Create(ctx, body(t, `{"title": "Hidden"}`))
	require.NoError(t, err)

	got, err := svc.GetBySlug(ctx, "hidden", false)
	require.NoError(t, err)
	require.Equal(t, "Hidden", got.Title)

	_, err = svc.GetBySlug(ctx, "hidden", true)
	require.ErrorIs(t, err, ErrNotFound, "unpublished item invisible to published-only reads")
}
