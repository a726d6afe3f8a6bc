package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	"title":          TrimmedString,
	"excerpt":        String,
	"image":          ImageRef,
	"tags":           Tags,
	"content_blocks": Blocks,
	"published":      Bool,
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func TestBuildSubsetOfSchema(t *testing.T) {
	raw := decode(t, `{
		"title": "  Spaced Title  ",
		"published": true,
		"slug": "attacker-controlled",
		"$where": "sleep(1000)",
		"extra": {"nested": 1}
	}`)
	got := Build(raw, testSchema)

	require.Equal(t, map[string]any{"title": "Spaced Title", "published": true}, got)
	require.NotContains(t, got, "slug")
	require.NotContains(t, got, "$where")
}

func TestBuildDropsIllTyped(t *testing.T) {
	raw := decode(t, `{"title": 42, "published": "yes", "excerpt": null}`)
	got := Build(raw, testSchema)
	require.Empty(t, got)
}

func TestBuildOmitsAbsentFields(t *testing.T) {
	got := Build(decode(t, `{"published": false}`), testSchema)
	require.Equal(t, map[string]any{"published": false}, got)
	// absent fields must not appear at all, not even as nil
	_, hasTitle := got["title"]
	require.False(t, hasTitle)
}

func TestPickTagsDelimitedString(t *testing.T) {
	raw := decode(t, `{"tags": "UI, UX; Branding\nReact"}`)
	got := Build(raw, testSchema)
	require.Equal(t, []string{"UI", "UX", "Branding", "React"}, got["tags"])
}

func TestPickTagsArray(t *testing.T) {
	raw := decode(t, `{"tags": ["Go", "  Go  ", "", "Design"]}`)
	got := Build(raw, testSchema)
	// duplicates kept, empties dropped, values trimmed
	require.Equal(t, []string{"Go", "Go", "Design"}, got["tags"])
}

func TestPickTagsCap(t *testing.T) {
	long := make([]string, 0, MaxTags+10)
	for i := 0; i < MaxTags+10; i++ {
		long = append(long, "t")
	}
	got, ok := PickTags(long)
	require.True(t, ok)
	require.Len(t, got, MaxTags)
}

func TestPickTagsRejectsOtherTypes(t *testing.T) {
	raw := decode(t, `{"tags": 7}`)
	got := Build(raw, testSchema)
	require.NotContains(t, got, "tags")
}

func TestPickBlocksFiltering(t *testing.T) {
	raw := decode(t, `{"content_blocks": [
		{"id": "", "kind": "image", "url": "x"},
		{"id": "b1", "kind": "image", "url": "x"},
		{"id": "b2"},
		{"id": "b3", "kind": "paragraph", "text": "hello"},
		"not-an-object"
	]}`)
	got := Build(raw, testSchema)
	blocks, ok := got["content_blocks"].([]Block)
	require.True(t, ok)
	require.Len(t, blocks, 2)
	require.Equal(t, Block{ID: "b1", Kind: "image", URL: "x"}, blocks[0])
	require.Equal(t, Block{ID: "b3", Kind: "paragraph", Text: "hello"}, blocks[1])
	// missing sub-fields default to empty strings
	require.Equal(t, "", blocks[0].Text)
	require.Equal(t, "", blocks[0].Alt)
}

func TestPickBlocksRequiresArray(t *testing.T) {
	raw := decode(t, `{"content_blocks": {"id": "b1", "kind": "text"}}`)
	got := Build(raw, testSchema)
	require.NotContains(t, got, "content_blocks")
}

func TestImageRef(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"https://cdn.example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"/uploads/a.png", true},
		{"ftp://example.com/a.png", false},
		{"javascript:alert(1)", false},
		{"not a url", false},
		{"", false},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, ValidImageRef(c.in), "input %q", c.in)
	}

	got := Build(decode(t, `{"image": "  https://cdn.example.com/a.png  "}`), testSchema)
	require.Equal(t, "https://cdn.example.com/a.png", got["image"])

	got = Build(decode(t, `{"image": "ftp://nope"}`), testSchema)
	require.NotContains(t, got, "image")
}
