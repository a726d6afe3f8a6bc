// Package patch builds validated partial-update documents from untrusted JSON
// bodies. Only fields declared in a Schema can appear in the result; anything
// absent, ill-typed, or unrecognized is dropped rather than written as null.
package patch

import (
	"net/url"
	"strings"
)

// Kind declares how a schema field is validated and coerced.
type Kind int

const (
	String Kind = iota
	TrimmedString
	Bool
	Tags
	Blocks
	ImageRef
)

// Schema maps JSON field names to their declared kinds.
type Schema map[string]Kind

// MaxTags caps the tag list on any single item.
const MaxTags = 30

// Block is one element of an item's content body, discriminated by Kind.
// Blocks missing either ID or Kind are discarded during normalization.
type Block struct {
	ID    string `json:"id" bson:"id"`
	Kind  string `json:"kind" bson:"kind"`
	Text  string `json:"text" bson:"text"`
	Label string `json:"label" bson:"label"`
	URL   string `json:"url" bson:"url"`
	Alt   string `json:"alt" bson:"alt"`
}

// Build extracts the schema's fields from raw. The result contains only keys
// that were present in raw and passed their kind's check; untouched fields stay
// untouched in the store.
func Build(raw map[string]any, schema Schema) map[string]any {
	out := map[string]any{}
	for name, kind := range schema {
		v, ok := raw[name]
		if !ok {
			continue
		}
		switch kind {
		case String:
			if s, ok := v.(string); ok {
				out[name] = s
			}
		case TrimmedString:
			if s, ok := v.(string); ok {
				out[name] = strings.TrimSpace(s)
			}
		case Bool:
			if b, ok := v.(bool); ok {
				out[name] = b
			}
		case Tags:
			if tags, ok := PickTags(v); ok {
				out[name] = tags
			}
		case Blocks:
			if blocks, ok := PickBlocks(v); ok {
				out[name] = blocks
			}
		case ImageRef:
			if s, ok := v.(string); ok {
				if ref := strings.TrimSpace(s); ValidImageRef(ref) {
					out[name] = ref
				}
			}
		}
	}
	return out
}

// PickTags accepts either an array of strings or a single delimited string
// (comma, semicolon, newline or whitespace). Order is preserved, empties are
// dropped, duplicates are kept, and the list is capped at MaxTags.
func PickTags(v any) ([]string, bool) {
	switch raw := v.(type) {
	case []any:
		out := []string{}
		for _, e := range raw {
			if s, ok := e.(string); ok {
				if t := strings.TrimSpace(s); t != "" {
					out = append(out, t)
				}
			}
			if len(out) == MaxTags {
				break
			}
		}
		return out, true
	case []string:
		out := []string{}
		for _, s := range raw {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
			if len(out) == MaxTags {
				break
			}
		}
		return out, true
	case string:
		if strings.TrimSpace(raw) == "" {
			return nil, false
		}
		out := []string{}
		for _, s := range strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == ' ' || r == '\t' || r == '\r'
		}) {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
			if len(out) == MaxTags {
				break
			}
		}
		return out, true
	}
	return nil, false
}

// PickBlocks accepts only array input. Each element survives only with a
// non-empty id and kind; missing sub-fields default to "".
func PickBlocks(v any) ([]Block, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := []Block{}
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		b := Block{
			ID:    nonBlank(m["id"]),
			Kind:  nonBlank(m["kind"]),
			Text:  nonBlank(m["text"]),
			Label: nonBlank(m["label"]),
			URL:   nonBlank(m["url"]),
			Alt:   nonBlank(m["alt"]),
		}
		if b.ID == "" || b.Kind == "" {
			continue
		}
		out = append(out, b)
	}
	return out, true
}

// ValidImageRef accepts an absolute http(s) URL or a root-relative path.
func ValidImageRef(ref string) bool {
	if ref == "" {
		return false
	}
	if strings.HasPrefix(ref, "/") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// nonBlank keeps a string value as-is when it has visible content, otherwise "".
func nonBlank(v any) string {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
