package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timelineHTML = `
<html><body><div data-testid="primaryColumn">
<article data-testid="tweet">
  <a href="/alice"><span>Alice</span></a>
  <a href="/alice/status/1870000000000000001">p</a>
  <div data-testid="tweetText">first</div>
</article>
<article data-testid="tweet">
  <a href="/bob"><span>Bob</span></a>
  <a href="/bob/status/1870000000000000002">p</a>
  <div data-testid="tweetText">second</div>
</article>
<article data-testid="tweet">
  <a href="/alice"><span>Alice again, quoted</span></a>
  <a href="/alice/status/1870000000000000001">p</a>
  <div data-testid="tweetText">first, rendered twice</div>
</article>
<article data-testid="tweet">
  <div data-testid="tweetText">not a post, no permalink</div>
</article>
</div></body></html>`

func TestFromDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(timelineHTML))
	require.NoError(t, err)

	posts := FromDocument(doc)

	t.Run("duplicate post IDs keep first occurrence", func(t *testing.T) {
		require.Len(t, posts, 2)
		assert.Equal(t, "1870000000000000001", posts[0].PostID)
		assert.Equal(t, "first", posts[0].Content)
	})

	t.Run("DOM order preserved", func(t *testing.T) {
		require.Len(t, posts, 2)
		assert.Equal(t, "1870000000000000002", posts[1].PostID)
	})

	t.Run("non-post elements excluded silently", func(t *testing.T) {
		for _, p := range posts {
			assert.NotEmpty(t, p.PostID)
			assert.NotEmpty(t, p.AuthorHandle)
		}
	})
}
