// Package prose holds the small text helpers applied to project content:
// word counting and markup stripping for plain-text export.
package prose

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// WordCount returns the number of whitespace-separated tokens in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// StripTags removes markup tags from s. Angle brackets left over from
// unterminated tags are dropped as well, so the result never carries '<' or '>'.
func StripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
