package thread

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"xmarks/internal/types"
)

func TestIsCandidate(t *testing.T) {
	bm := func(content string) types.LocalBookmark {
		return types.LocalBookmark{PostID: "1870000000000000001", Content: content}
	}

	t.Run("counter pattern under length threshold", func(t *testing.T) {
		// 62 chars, well under the long-post trigger.
		assert.True(t, IsCandidate(bm("1/5 A thread about how we scaled our ingestion pipeline to 1M")))
	})

	t.Run("parenthesized counter", func(t *testing.T) {
		assert.True(t, IsCandidate(bm("Some interesting findings (1/7)")))
	})

	t.Run("word thread", func(t *testing.T) {
		assert.True(t, IsCandidate(bm("A thread on database internals:")))
	})

	t.Run("part 1", func(t *testing.T) {
		assert.True(t, IsCandidate(bm("Part 1 of my write-up")))
	})

	t.Run("numbered list start", func(t *testing.T) {
		assert.True(t, IsCandidate(bm("1. First you need to understand the basics")))
	})

	t.Run("thread emoji", func(t *testing.T) {
		assert.True(t, IsCandidate(bm("Everything I know about caching 🧵")))
	})

	t.Run("long content without indicators", func(t *testing.T) {
		assert.True(t, IsCandidate(bm(strings.Repeat("a", 251))))
	})

	t.Run("short content without indicators", func(t *testing.T) {
		assert.False(t, IsCandidate(bm("nice weather today")))
	})

	t.Run("already part of a known thread", func(t *testing.T) {
		b := bm("1/5 A thread about Go")
		b.IsThread = true
		b.ThreadID = "1870000000000000000"
		assert.False(t, IsCandidate(b))
	})

	t.Run("thread flag without thread id still a candidate", func(t *testing.T) {
		b := bm("1/5 A thread about Go")
		b.IsThread = true
		assert.True(t, IsCandidate(b))
	})
}
