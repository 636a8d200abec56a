package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make normalizes a human-readable name or title into a URL-safe slug:
// lowercase, runs of non-alphanumerics collapsed into single hyphens, no
// leading or trailing hyphen. The result only ever contains [a-z0-9-].
func Make(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Non-ASCII letters and digits are dropped rather than
			// transliterated, matching the slug fields found in the wild.
			continue
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// WithSuffix disambiguates a colliding slug: WithSuffix("my-post", 2)
// returns "my-post-2".
func WithSuffix(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}
