package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Fallback is used when a base slug normalizes to nothing.
const Fallback = "item"

// maxProbes bounds the uniqueness loop. The unique index on the collection is
// the real arbiter; the cap only protects against a pathological store.
const maxProbes = 500

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// Normalize converts arbitrary text into a URL-safe slug: trimmed, lowercased,
// non-alphanumerics stripped, whitespace and hyphen runs collapsed to a single
// hyphen, edge hyphens removed. Total function; may return "".
func Normalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// EnsureUnique walks base, base-2, base-3, ... until exists reports a free
// candidate. An empty base falls back to Fallback. The check is not atomic with
// the eventual insert; callers must still treat a duplicate-key rejection from
// the store as a conflict.
func EnsureUnique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if base == "" {
		base = Fallback
	}
	candidate := base
	for counter := 2; ; counter++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if counter-2 >= maxProbes {
			return "", fmt.Errorf("no free slug found for %q after %d probes", base, maxProbes)
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
