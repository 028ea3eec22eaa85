// Package thread reconstructs multi-post threads from a post's detail page.
// X embeds the same logical data in several serialization shapes depending
// on render path and experiment state, so parsing is a cascade of
// independent strategies tried in order.
package thread

import (
	"regexp"
	"unicode/utf8"

	"xmarks/internal/types"
)

// threadIndicators are content patterns suggesting a post opens a thread.
var threadIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bthread\b`),
	regexp.MustCompile(`\b\d+/\d+\b`),     // "1/5", "2/10"
	regexp.MustCompile(`\(\d+/\d+\)`),     // "(1/5)"
	regexp.MustCompile(`(?i)\bpart 1\b`),
	regexp.MustCompile(`^1\.\s`),          // starts with "1. "
	regexp.MustCompile(`🧵`),
}

// longPostThreshold is the content length above which a post is treated as
// a likely thread starter even without an explicit indicator.
const longPostThreshold = 250

// IsCandidate reports whether a bookmark may start a thread worth
// expanding. Bookmarks already tagged into a known thread are skipped.
func IsCandidate(b types.LocalBookmark) bool {
	if b.IsThread && b.ThreadID != "" {
		return false
	}

	for _, indicator := range threadIndicators {
		if indicator.MatchString(b.Content) {
			return true
		}
	}

	return utf8.RuneCountInString(b.Content) > longPostThreshold
}
